// Package memory is an in-process DocumentStore.
// It backs tests and demos and mirrors the aggregation semantics of the SQL backends.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/storage"
)

const maxLineBytes = 16 * 1024 * 1024

// Store keeps collections as insertion-ordered document slices.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]v1.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{collections: make(map[string][]v1.Document)}
}

// Insert validates and appends documents to a collection.
func (s *Store) Insert(collection string, docs ...v1.Document) error {
	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], docs...)
	return nil
}

// LoadNDJSON reads newline-delimited JSON documents into a collection.
// Blank lines are ignored; the first malformed line aborts the load.
func (s *Store) LoadNDJSON(r io.Reader, collection string) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []v1.Document
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		doc, err := v1.ParseDocument(raw)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read documents: %w", err)
	}

	if err := s.Insert(collection, docs...); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *Store) snapshot(collection string) []v1.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[collection]
}

// Find returns matching documents in insertion order.
func (s *Store) Find(_ context.Context, collection string, match []storage.Match) ([]v1.Document, error) {
	var out []v1.Document
	for _, doc := range s.snapshot(collection) {
		if storage.Matches(doc, match) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Aggregate groups matching documents by the projection of req.Key.
func (s *Store) Aggregate(_ context.Context, req storage.AggregateRequest) ([]v1.Document, error) {
	var (
		order []string
		parts = make(map[string]*storage.BucketParts)
	)

	for _, doc := range s.snapshot(req.Collection) {
		if !storage.Matches(doc, req.Match) {
			continue
		}

		key := make(map[string]any, len(req.Key))
		for _, k := range req.Key {
			v, _ := fieldpath.ResolveStored(doc, k)
			key[k.Name] = v
		}
		fp := storage.Fingerprint(key)

		b, ok := parts[fp]
		if !ok {
			b = &storage.BucketParts{Key: key, Collected: make(map[string][]any)}
			parts[fp] = b
			order = append(order, fp)
		}

		if y, ok := fieldpath.Lookup(doc, []string{v1.ValueKey, req.Target}); ok {
			b.Y = append(b.Y, y)
		}
		for _, name := range req.Collect {
			if v, ok := fieldpath.Lookup(doc, []string{v1.ValueKey, name}); ok {
				b.Collected[name] = append(b.Collected[name], v)
			}
		}
		b.Identities = append(b.Identities, doc.Identity())
	}

	out := make([]v1.Document, 0, len(order))
	for _, fp := range order {
		out = append(out, parts[fp].Document(req.Key))
	}
	return out, nil
}

// Distinct returns the distinct values at path, in first-seen order.
func (s *Store) Distinct(_ context.Context, collection string, path fieldpath.FieldPath) ([]any, error) {
	seen := make(map[string]bool)
	var out []any
	for _, doc := range s.snapshot(collection) {
		v, ok := fieldpath.ResolveStored(doc, path)
		if !ok {
			continue
		}
		fp := storage.Fingerprint(v)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, v)
	}
	return out, nil
}

// Keys returns the key names of one sub-structure across the first sample documents.
func (s *Store) Keys(_ context.Context, collection, sub string, sample int) ([]string, error) {
	docs := s.snapshot(collection)
	if sample > 0 && len(docs) > sample {
		docs = docs[:sample]
	}

	set := make(map[string]bool)
	for _, doc := range docs {
		v, ok := doc[sub].(map[string]any)
		if !ok {
			continue
		}
		for k := range v {
			set[k] = true
		}
	}
	return storage.SortedKeys(set), nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
