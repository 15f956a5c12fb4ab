package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hapsayhub/backend/internal/models"
)

// RecordStore is a keyed collection of one entity kind persisted as a JSON array.
type RecordStore[T any] struct {
	medium Medium
	key    string
	idOf   func(T) string
}

// New creates a record store for the document at key; idOf returns a record's identity.
func New[T any](medium Medium, key string, idOf func(T) string) *RecordStore[T] {
	return &RecordStore[T]{medium: medium, key: key, idOf: idOf}
}

// Key returns the document key this store writes.
func (s *RecordStore[T]) Key() string { return s.key }

// ID returns the identity of rec.
func (s *RecordStore[T]) ID(rec T) string { return s.idOf(rec) }

// ReadAll returns every stored record, or an empty slice if nothing was written yet.
// A corrupt document yields *ParseError.
func (s *RecordStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	doc, found, err := s.medium.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !found || len(bytes.TrimSpace(doc)) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, &ParseError{Key: s.key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Find returns the record with the given identity or models.ErrNotFound.
func (s *RecordStore[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	all, err := s.ReadAll(ctx)
	if err != nil {
		return zero, err
	}
	if i := s.indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return zero, models.ErrNotFound
}

// Upsert replaces the record with the same identity wholesale, or appends it.
func (s *RecordStore[T]) Upsert(ctx context.Context, rec T) error {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}
	if i := s.indexOf(all, s.idOf(rec)); i >= 0 {
		all[i] = rec
	} else {
		all = append(all, rec)
	}
	return s.write(ctx, all)
}

// Replace swaps the record identified by oldID for rec, keeping its position.
// Used when the identity itself changes, e.g. a category rename.
func (s *RecordStore[T]) Replace(ctx context.Context, oldID string, rec T) error {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}
	i := s.indexOf(all, oldID)
	if i < 0 {
		return models.ErrNotFound
	}
	all[i] = rec
	return s.write(ctx, all)
}

// Delete removes the record with the given identity; absent ids are a no-op.
func (s *RecordStore[T]) Delete(ctx context.Context, id string) error {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}
	kept := all[:0]
	removed := false
	for _, rec := range all {
		if s.idOf(rec) == id {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return nil
	}
	return s.write(ctx, kept)
}

func (s *RecordStore[T]) indexOf(all []T, id string) int {
	for i, rec := range all {
		if s.idOf(rec) == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore[T]) write(ctx context.Context, all []T) error {
	doc, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.key, err)
	}
	if err := s.medium.Set(ctx, s.key, doc); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
