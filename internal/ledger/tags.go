package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/events"
)

type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TagUpdate struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Service) AddTag(ctx context.Context, in TagInput) (*core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", core.ErrValidation)
	}
	if doc.TagByName(name) != nil {
		return nil, fmt.Errorf("%w: tag %q already exists", core.ErrValidation, name)
	}

	tag := core.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     in.Color,
		CreatedAt: s.now(),
	}
	doc.Tags = append(doc.Tags, tag)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindTagChanged, tag.ID)
	return &tag, nil
}

func (s *Service) UpdateTag(ctx context.Context, id string, up TagUpdate) (*core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	tag := doc.Tag(id)
	if tag == nil {
		return nil, fmt.Errorf("tag %s: %w", id, core.ErrNotFound)
	}

	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tag name is required", core.ErrValidation)
		}
		if other := doc.TagByName(name); other != nil && other.ID != id {
			return nil, fmt.Errorf("%w: tag %q already exists", core.ErrValidation, name)
		}
		// Renaming also renames the tag on every transaction carrying it.
		for i := range doc.Transactions {
			for j, tn := range doc.Transactions[i].Tags {
				if strings.EqualFold(tn, tag.Name) {
					doc.Transactions[i].Tags[j] = name
				}
			}
		}
		tag.Name = name
	}
	if up.Color != nil {
		tag.Color = *up.Color
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindTagChanged, id)
	return tag, nil
}

// DeleteTag removes a tag. A tag still in use is only removed when force is
// set, in which case its name is stripped from every transaction carrying it.
func (s *Service) DeleteTag(ctx context.Context, id string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range doc.Tags {
		if doc.Tags[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("tag %s: %w", id, core.ErrNotFound)
	}

	tag := doc.Tags[idx]
	if tag.UsageCount > 0 && !force {
		return fmt.Errorf("%w: tag %q is used %d times, deletion requires confirmation",
			core.ErrTagInUse, tag.Name, tag.UsageCount)
	}

	if force {
		for i := range doc.Transactions {
			doc.Transactions[i].Tags = removeTag(doc.Transactions[i].Tags, tag.Name)
		}
	}
	doc.Tags = append(doc.Tags[:idx], doc.Tags[idx+1:]...)

	if err := s.store.Save(ctx, doc); err != nil {
		return err
	}
	s.publish(ctx, events.KindTagChanged, id)
	return nil
}

func removeTag(tags []string, name string) []string {
	out := tags[:0]
	for _, t := range tags {
		if !strings.EqualFold(t, name) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
