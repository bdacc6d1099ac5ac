// Package query turns a user's match and grouping choices into grouped
// aggregation requests against a document store.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/storage"
)

// GroupSpec is an ordered, de-duplicated list of grouping keys.
type GroupSpec []fieldpath.FieldPath

// ParseGroup parses grouping keys, dropping blanks and later duplicates.
func ParseGroup(raw []string) (GroupSpec, error) {
	var spec GroupSpec
	seen := make(map[fieldpath.FieldPath]bool, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		p, err := fieldpath.ParseKey(r)
		if err != nil {
			return nil, fmt.Errorf("invalid group key %q: %w", r, err)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		spec = append(spec, p)
	}
	return spec, nil
}

// Contains reports whether p is one of the grouping keys.
func (g GroupSpec) Contains(p fieldpath.FieldPath) bool {
	for _, k := range g {
		if k == p {
			return true
		}
	}
	return false
}

// Names returns the grouping key names in order.
func (g GroupSpec) Names() []string {
	out := make([]string, len(g))
	for i, k := range g {
		out[i] = k.Name
	}
	return out
}

// MatchSpec is the set of literal constraints a document must satisfy.
type MatchSpec []storage.Match

// ParseMatch parses match entries keyed by field. Values are read as JSON
// literals when they parse (3, true, "ALIC") and as bare strings otherwise.
// Empty values are ignored. Entries are ordered by field for stable queries.
func ParseMatch(raw map[string]string) (MatchSpec, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var spec MatchSpec
	for _, k := range keys {
		v := strings.TrimSpace(raw[k])
		if v == "" {
			continue
		}
		p, err := fieldpath.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("invalid match key %q: %w", k, err)
		}
		spec = append(spec, storage.Match{Path: p, Value: ParseLiteral(v)})
	}
	return spec, nil
}

// ParseLiteral decodes a scalar JSON literal, falling back to the raw string.
func ParseLiteral(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return raw
	}
	return v
}

// Target is one extraction: the value field collected into each bucket's y,
// and the axis fields points are plotted from. A zero Y means the collected y.
type Target struct {
	Value string
	X     fieldpath.FieldPath
	Y     fieldpath.FieldPath
}

// Build assembles the aggregation request for one target.
//
// The bucket key is the GroupSpec, extended with each identity-scoped axis
// field not already in it, so every bucket is one point of one series and
// carries its axis values. Plain axis fields other than y are collected from
// the value sub-structure alongside y.
func Build(collection string, match MatchSpec, group GroupSpec, target Target) storage.AggregateRequest {
	key := make(GroupSpec, 0, len(group)+2)
	key = append(key, group...)
	for _, axis := range []fieldpath.FieldPath{target.X, target.Y} {
		if axis.IsIdentity() && !key.Contains(axis) {
			key = append(key, axis)
		}
	}

	var collect []string
	for _, axis := range []fieldpath.FieldPath{target.X, target.Y} {
		if axis.IsIdentity() || axis.Name == "" || axis.Name == storage.CollectedY {
			continue
		}
		if len(collect) == 1 && collect[0] == axis.Name {
			continue
		}
		collect = append(collect, axis.Name)
	}

	return storage.AggregateRequest{
		Collection: collection,
		Match:      append([]storage.Match(nil), match...),
		Key:        []fieldpath.FieldPath(key),
		Target:     target.Value,
		Collect:    collect,
	}
}
