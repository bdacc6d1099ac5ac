package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/storage"
)

const (
	loadBatchSize    = 1000
	maxLoadLineBytes = 16 * 1024 * 1024
)

type batchInserter interface {
	Insert(ctx context.Context, collection string, docs ...v1.Document) error
}

type ndjsonLoader interface {
	LoadNDJSON(r io.Reader, collection string) (int, error)
}

// loadDocuments appends the NDJSON documents of path to collection.
func loadDocuments(ctx context.Context, store storage.DocumentStore, path, collection string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch s := store.(type) {
	case ndjsonLoader:
		return s.LoadNDJSON(f, collection)
	case batchInserter:
		return insertBatches(ctx, s, f, collection)
	}
	return 0, fmt.Errorf("store %T does not accept documents", store)
}

func insertBatches(ctx context.Context, s batchInserter, r io.Reader, collection string) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLoadLineBytes)

	var (
		batch []v1.Document
		total int
		line  int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Insert(ctx, collection, batch...); err != nil {
			return err
		}
		total += len(batch)
		slog.Info("[Load] Inserted batch", "collection", collection, "documents", total)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		doc, err := v1.ParseDocument(raw)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, doc)
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("failed to read documents: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
