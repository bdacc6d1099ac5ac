package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
)

// BucketParts are the raw pieces a backend gathers for one bucket.
type BucketParts struct {
	Key        map[string]any
	Y          []any
	Collected  map[string][]any
	Identities []map[string]any
}

// Document assembles the bucket's result document in the shape described on
// AggregateRequest. Identity keys that are part of the bucket key are not
// repeated at the top level.
func (p BucketParts) Document(key []fieldpath.FieldPath) v1.Document {
	bucketKey := p.Key
	if bucketKey == nil {
		bucketKey = map[string]any{}
	}
	doc := v1.Document{
		v1.BucketKey: bucketKey,
		CollectedY:   nonNilList(p.Y),
	}

	grouped := make(map[string]bool, len(key))
	for _, k := range key {
		if k.IsIdentity() {
			grouped[k.Name] = true
		}
	}
	for name, values := range DistinctIdentities(p.Identities) {
		if grouped[name] || name == CollectedY || name == v1.BucketKey {
			continue
		}
		doc[name] = values
	}

	for name, values := range p.Collected {
		doc[name] = nonNilList(values)
	}
	return doc
}

// DecodeBucket builds bucket parts from the JSON a SQL backend returns for
// one bucket: the key object, the array of the documents' value
// sub-structures and the array of their identity sub-structures.
// target and collect pick the value fields out of each entry.
func DecodeBucket(keyJSON, valsJSON, idsJSON []byte, target string, collect []string) (BucketParts, error) {
	parts := BucketParts{Collected: make(map[string][]any)}
	if err := json.Unmarshal(keyJSON, &parts.Key); err != nil {
		return BucketParts{}, fmt.Errorf("failed to unmarshal bucket key: %w", err)
	}

	var vals []any
	if err := json.Unmarshal(valsJSON, &vals); err != nil {
		return BucketParts{}, fmt.Errorf("failed to unmarshal bucket values: %w", err)
	}
	for _, v := range vals {
		val, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if y, ok := val[target]; ok {
			parts.Y = append(parts.Y, y)
		}
		for _, name := range collect {
			if c, ok := val[name]; ok {
				parts.Collected[name] = append(parts.Collected[name], c)
			}
		}
	}

	var ids []any
	if err := json.Unmarshal(idsJSON, &ids); err != nil {
		return BucketParts{}, fmt.Errorf("failed to unmarshal bucket identities: %w", err)
	}
	for _, id := range ids {
		if m, ok := id.(map[string]any); ok {
			parts.Identities = append(parts.Identities, m)
		}
	}
	return parts, nil
}

// DistinctIdentities folds the identity sub-structures of a bucket's documents
// into one distinct-value list per key, ordered by first appearance.
func DistinctIdentities(ids []map[string]any) map[string][]any {
	out := make(map[string][]any)
	seen := make(map[string]map[string]bool)
	for _, id := range ids {
		for name, v := range id {
			if seen[name] == nil {
				seen[name] = make(map[string]bool)
			}
			fp := Fingerprint(v)
			if seen[name][fp] {
				continue
			}
			seen[name][fp] = true
			out[name] = append(out[name], v)
		}
	}
	return out
}

// Fingerprint is a canonical text form of a decoded JSON value, used for
// equality between values from different decoders (float64 vs int).
func Fingerprint(v any) string {
	switch n := v.(type) {
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case int32:
		v = float64(n)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return string(b)
}

// Matches reports whether a stored document satisfies every match entry.
func Matches(doc map[string]any, match []Match) bool {
	for _, m := range match {
		v, ok := fieldpath.ResolveStored(doc, m.Path)
		if !ok || Fingerprint(v) != Fingerprint(m.Value) {
			return false
		}
	}
	return true
}

// MatchDocument renders match entries as a nested containment document
// ({"id": {"site": "ALIC"}}), the form JSON containment operators expect.
func MatchDocument(match []Match) map[string]any {
	root := make(map[string]any)
	for _, m := range match {
		segments := m.Path.StoredPath()
		cur := root
		for _, seg := range segments[:len(segments)-1] {
			next, ok := cur[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[seg] = next
			}
			cur = next
		}
		cur[segments[len(segments)-1]] = m.Value
	}
	return root
}

// SortedKeys returns the keys of a set in ascending order.
func SortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNilList(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}
