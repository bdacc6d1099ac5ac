// Package schema discovers the shape of a schema-less document collection:
// which identity and value keys exist, and which values each identity key takes.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/filter"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/shopspring/decimal"
)

// DefaultSampleSize is the number of documents inspected for key discovery.
const DefaultSampleSize = 1000

// Index is the result of one introspection.
type Index struct {
	// IDKeys are the identity keys found, sorted.
	IDKeys []string `json:"id_keys"`
	// ValueKeys are the value keys found, sorted.
	ValueKeys []string `json:"value_keys"`
	// Distinct maps each identity key to its sorted distinct values.
	Distinct map[string][]any `json:"distinct"`
}

// Empty reports whether no keys were discovered.
func (i *Index) Empty() bool {
	return len(i.IDKeys) == 0 && len(i.ValueKeys) == 0
}

// Introspector samples a collection to rebuild its Index.
type Introspector struct {
	sampleSize int
}

// NewIntrospector creates an introspector sampling sampleSize documents
// (0 samples the whole collection, negative uses DefaultSampleSize).
func NewIntrospector(sampleSize int) *Introspector {
	if sampleSize < 0 {
		sampleSize = DefaultSampleSize
	}
	return &Introspector{sampleSize: sampleSize}
}

// Introspect rebuilds the Index of collection. An empty collection yields an
// empty Index. Connectivity failures are returned; a failed distinct lookup
// for a single key is logged and leaves that key with no values.
func (i *Introspector) Introspect(ctx context.Context, store storage.DocumentStore, collection string) (*Index, error) {
	idKeys, err := store.Keys(ctx, collection, storage.SubIdentity, i.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity keys: %w", err)
	}
	valKeys, err := store.Keys(ctx, collection, storage.SubValue, i.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list value keys: %w", err)
	}

	idx := &Index{
		IDKeys:    sortedStrings(idKeys),
		ValueKeys: sortedStrings(valKeys),
		Distinct:  make(map[string][]any, len(idKeys)),
	}

	for _, key := range idx.IDKeys {
		values, err := store.Distinct(ctx, collection, fieldpath.IdentityPath(key))
		if err != nil {
			if errors.Is(err, storage.ErrUnreachable) {
				return nil, err
			}
			slog.Warn("[Schema] Distinct lookup failed", "collection", collection, "key", key, "error", err)
			idx.Distinct[key] = []any{}
			continue
		}
		idx.Distinct[key] = SortValues(values)
	}

	slog.Debug("[Schema] Introspected collection",
		"collection", collection,
		"id_keys", len(idx.IDKeys),
		"value_keys", len(idx.ValueKeys))
	return idx, nil
}

// SortValues de-duplicates and sorts distinct values: numbers ascending,
// then strings ascending, then booleans (false first), then anything else in
// input order. nil values are dropped.
func SortValues(values []any) []any {
	var (
		numbers []decimalValue
		strs    []string
		bools   [2]bool
		others  []any
	)
	seenNum := make(map[string]bool)
	seenStr := make(map[string]bool)
	seenOther := make(map[string]bool)

	for _, v := range values {
		switch t := v.(type) {
		case nil:
		case string:
			if !seenStr[t] {
				seenStr[t] = true
				strs = append(strs, t)
			}
		case bool:
			if t {
				bools[1] = true
			} else {
				bools[0] = true
			}
		default:
			if f, ok := filter.ToFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
				d := decimal.NewFromFloat(f)
				if key := d.String(); !seenNum[key] {
					seenNum[key] = true
					numbers = append(numbers, decimalValue{d: d, raw: v})
				}
				continue
			}
			fp := storage.Fingerprint(v)
			if !seenOther[fp] {
				seenOther[fp] = true
				others = append(others, v)
			}
		}
	}

	sort.SliceStable(numbers, func(a, b int) bool { return numbers[a].d.LessThan(numbers[b].d) })
	sort.Strings(strs)

	out := make([]any, 0, len(numbers)+len(strs)+2+len(others))
	for _, n := range numbers {
		out = append(out, n.raw)
	}
	for _, s := range strs {
		out = append(out, s)
	}
	if bools[0] {
		out = append(out, false)
	}
	if bools[1] {
		out = append(out, true)
	}
	return append(out, others...)
}

type decimalValue struct {
	d   decimal.Decimal
	raw any
}

func sortedStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
