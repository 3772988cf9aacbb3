package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/log"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: data}); err != nil {
		s.logger.Error("Failed to encode response", log.FieldError, err)
	}
}

// respondRaw writes pre-marshaled envelope bytes, used by the cached read
// paths.
func (s *Server) respondRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("Failed to write response", log.FieldError, err)
	}
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrCategoryInUse), errors.Is(err, core.ErrTagInUse):
		status = http.StatusConflict
	case errors.Is(err, core.ErrPersistence):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(errorEnvelope{Error: err.Error()}); encodeErr != nil {
		s.logger.Error("Failed to encode error response", log.FieldError, encodeErr)
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", core.ErrValidation, err)
	}
	return nil
}

// decodeBodyOptional is decodeBody for endpoints where an empty body is
// legitimate.
func decodeBodyOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body: %v", core.ErrValidation, err)
}
