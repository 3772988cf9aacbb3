package http

import (
	"net/http"
	"strconv"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.URL.Query().Get("type"))
	categories, err := s.ledger.GetCategories(r.Context(), typ)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, categories)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var in ledger.CategoryInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.ledger.AddCategory(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var up ledger.CategoryUpdate
	if err := decodeBody(r, &up); err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.ledger.UpdateCategory(r.Context(), r.PathValue("id"), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSubcategory(w http.ResponseWriter, r *http.Request) {
	var in ledger.SubcategoryInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	sub, err := s.ledger.AddSubcategory(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, sub)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))
	accounts, err := s.ledger.GetAccounts(r.Context(), activeOnly)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, accounts)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var in ledger.AccountInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.ledger.AddAccount(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var up ledger.AccountUpdate
	if err := decodeBody(r, &up); err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.ledger.UpdateAccount(r.Context(), r.PathValue("id"), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, a)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.ledger.GetTags(r.Context(), ledger.TagQuery{SortBy: r.URL.Query().Get("sortBy")})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, tags)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var in ledger.TagInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	tag, err := s.ledger.AddTag(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var up ledger.TagUpdate
	if err := decodeBody(r, &up); err != nil {
		s.respondError(w, r, err)
		return
	}
	tag, err := s.ledger.UpdateTag(r.Context(), r.PathValue("id"), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, tag)
}

// handleDeleteTag honors the force query parameter: deleting a tag that is
// still in use requires force=true and then strips the tag from every
// transaction carrying it.
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.ledger.DeleteTag(r.Context(), r.PathValue("id"), force); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
