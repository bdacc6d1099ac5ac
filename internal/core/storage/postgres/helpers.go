package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/storage"
)

// marshalMatch renders match entries as a JSONB containment document.
func marshalMatch(match []storage.Match) ([]byte, error) {
	data, err := json.Marshal(storage.MatchDocument(match))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match: %w", err)
	}
	return data, nil
}

// keyArrays splits a bucket key into parallel name and dotted-path arrays.
func keyArrays(key []fieldpath.FieldPath) (names, paths []string) {
	names = make([]string, 0, len(key))
	paths = make([]string, 0, len(key))
	for _, k := range key {
		names = append(names, k.Name)
		paths = append(paths, strings.Join(k.StoredPath(), "."))
	}
	return names, paths
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDocumentRow scans a single doc column.
func scanDocumentRow(row scanner) (v1.Document, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to scan document row: %w", err)
	}

	var doc v1.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// scanBucketRow scans one aggregate row into the pieces of a bucket.
func scanBucketRow(row scanner, target string, collect []string) (storage.BucketParts, error) {
	var bucketJSON, valsJSON, idsJSON []byte
	if err := row.Scan(&bucketJSON, &valsJSON, &idsJSON); err != nil {
		return storage.BucketParts{}, fmt.Errorf("failed to scan bucket row: %w", err)
	}
	return storage.DecodeBucket(bucketJSON, valsJSON, idsJSON, target, collect)
}
