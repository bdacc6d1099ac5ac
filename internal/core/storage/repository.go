package storage

import (
	"context"
	"errors"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
)

// ErrUnreachable is returned when the document store cannot be contacted.
// It is the only condition that must never degrade into empty results.
var ErrUnreachable = errors.New("document store unreachable")

// Sub-structure names accepted by DocumentStore.Keys.
const (
	SubIdentity = v1.IdentityKey
	SubValue    = v1.ValueKey
)

// CollectedY is the result field holding the collected target values.
const CollectedY = "y"

// Match is one required literal of a MatchSpec.
type Match struct {
	Path  fieldpath.FieldPath
	Value any
}

// AggregateRequest is a grouped aggregation against one collection.
//
// Documents are filtered by Match, then grouped by the projection of Key.
// Each result document (bucket) carries:
//   - "_id": the Key projection, keyed by FieldPath.Name
//   - "y": the values of Target (val.<Target>) in insertion order
//   - one field per Collect entry (val.<name>) in insertion order
//   - one field per identity key not in Key: the distinct values seen in the bucket
//
// Buckets are returned in order of their first document's insertion sequence.
type AggregateRequest struct {
	Collection string
	Match      []Match
	Key        []fieldpath.FieldPath
	Target     string
	Collect    []string
}

// DocumentStore is the query surface of a schema-less document store.
type DocumentStore interface {
	// Find returns the stored documents matching every entry of match, in insertion order.
	Find(ctx context.Context, collection string, match []Match) ([]v1.Document, error)

	// Aggregate runs a grouped aggregation and returns one document per bucket.
	Aggregate(ctx context.Context, req AggregateRequest) ([]v1.Document, error)

	// Distinct returns the distinct values found at path across the collection, unordered.
	Distinct(ctx context.Context, collection string, path fieldpath.FieldPath) ([]any, error)

	// Keys returns the key names found in one sub-structure ("id" or "val"),
	// sampling at most sample documents (0 = all), unordered.
	Keys(ctx context.Context, collection, sub string, sample int) ([]string, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
