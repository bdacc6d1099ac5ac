// Package fieldpath addresses values inside schema-less documents.
//
// A FieldPath is either plain, resolved against the document root with "."
// descending into nested objects, or identity-scoped, resolved against the
// identity sub-structure. On the wire an identity-scoped path carries a
// leading "_" ("_time"), which is stripped before lookup.
package fieldpath

import (
	"fmt"
	"strings"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
)

// IdentityPrefix marks an identity-scoped path in its string form.
const IdentityPrefix = "_"

// Scope selects the structure a FieldPath resolves against.
type Scope int

const (
	// Plain paths resolve against the document root.
	Plain Scope = iota
	// Identity paths resolve against "id" in stored documents and "_id" in aggregated results.
	Identity
)

// FieldPath is a parsed document address.
type FieldPath struct {
	Name  string
	Scope Scope
}

// Parse parses an axis field. A leading "_" makes the path identity-scoped.
func Parse(raw string) (FieldPath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FieldPath{}, fmt.Errorf("field path must not be empty")
	}
	if strings.HasPrefix(raw, IdentityPrefix) {
		name := strings.TrimPrefix(raw, IdentityPrefix)
		if name == "" {
			return FieldPath{}, fmt.Errorf("field path %q has no name after the identity prefix", raw)
		}
		return FieldPath{Name: name, Scope: Identity}, nil
	}
	return FieldPath{Name: raw, Scope: Plain}, nil
}

// ParseKey parses a grouping or match key. Keys name identity keys by default:
// "site", "_site" and "id.site" all address id.site. Any other dotted key
// ("val.x") is a root-scoped path.
func ParseKey(raw string) (FieldPath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FieldPath{}, fmt.Errorf("key must not be empty")
	}
	raw = strings.TrimPrefix(raw, IdentityPrefix)
	raw = strings.TrimPrefix(raw, v1.IdentityKey+".")
	if raw == "" {
		return FieldPath{}, fmt.Errorf("key has no name")
	}
	if strings.Contains(raw, ".") {
		return FieldPath{Name: raw, Scope: Plain}, nil
	}
	return FieldPath{Name: raw, Scope: Identity}, nil
}

// IdentityPath builds an identity-scoped path.
func IdentityPath(name string) FieldPath {
	return FieldPath{Name: name, Scope: Identity}
}

// PlainPath builds a plain path.
func PlainPath(name string) FieldPath {
	return FieldPath{Name: name, Scope: Plain}
}

// IsIdentity reports whether p resolves against the identity sub-structure.
func (p FieldPath) IsIdentity() bool {
	return p.Scope == Identity
}

// String returns the wire form of p.
func (p FieldPath) String() string {
	if p.IsIdentity() {
		return IdentityPrefix + p.Name
	}
	return p.Name
}

// StoredPath is the location of p inside a stored document.
func (p FieldPath) StoredPath() []string {
	if p.IsIdentity() {
		return []string{v1.IdentityKey, p.Name}
	}
	return strings.Split(p.Name, ".")
}

// ResultPath is the location of p inside an aggregated result document.
// Grouped keys live flat under "_id", keyed by name.
func (p FieldPath) ResultPath() []string {
	if p.IsIdentity() {
		return []string{v1.BucketKey, p.Name}
	}
	return strings.Split(p.Name, ".")
}

// Resolve looks p up in an aggregated result document.
// The boolean is false when any segment is missing or not an object.
func Resolve(doc map[string]any, p FieldPath) (any, bool) {
	return Lookup(doc, p.ResultPath())
}

// ResolveStored looks p up in a stored document.
func ResolveStored(doc map[string]any, p FieldPath) (any, bool) {
	return Lookup(doc, p.StoredPath())
}

// Lookup walks nested objects segment by segment.
func Lookup(doc map[string]any, segments []string) (any, bool) {
	var cur any = doc
	for _, seg := range segments {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// First unwraps a container to its first element.
// Scalars are returned unchanged; an empty list counts as missing.
func First(v any) (any, bool) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}
		return list[0], list[0] != nil
	}
	return v, v != nil
}

// IsScalar reports whether v is neither an object nor a list.
func IsScalar(v any) bool {
	switch v.(type) {
	case map[string]any, v1.Document, []any:
		return false
	}
	return true
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case v1.Document:
		return m, true
	}
	return nil, false
}
