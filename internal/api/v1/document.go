package v1

import (
	"encoding/json"
	"fmt"
)

// Reserved keys of the document envelope.
const (
	// IdentityKey holds the classification keys of a stored document (site, sat, recv, ...).
	IdentityKey = "id"

	// ValueKey holds the measured quantities of a stored document.
	ValueKey = "val"

	// BucketKey holds the grouping tuple of an aggregated result document.
	BucketKey = "_id"
)

// Document is one schema-less record.
// Stored documents carry an identity sub-structure ("id") and a value
// sub-structure ("val"); aggregated result documents carry the bucket key
// ("_id") and the collected fields at the top level.
// The shape is not statically known, so access goes through fieldpath.Resolve.
type Document map[string]any

// Identity returns the identity sub-structure, or nil if absent or not an object.
func (d Document) Identity() map[string]any {
	return subObject(d, IdentityKey)
}

// Values returns the value sub-structure, or nil if absent or not an object.
func (d Document) Values() map[string]any {
	return subObject(d, ValueKey)
}

// Bucket returns the grouping tuple of an aggregated result document.
func (d Document) Bucket() map[string]any {
	return subObject(d, BucketKey)
}

// Validate ensures a stored document has both envelope sub-structures.
func (d Document) Validate() error {
	if d == nil {
		return fmt.Errorf("document is empty")
	}
	if _, ok := d[IdentityKey]; !ok {
		return fmt.Errorf("%s is required", IdentityKey)
	}
	if d.Identity() == nil {
		return fmt.Errorf("%s must be an object", IdentityKey)
	}
	if _, ok := d[ValueKey]; !ok {
		return fmt.Errorf("%s is required", ValueKey)
	}
	if d.Values() == nil {
		return fmt.Errorf("%s must be an object", ValueKey)
	}
	return nil
}

// ParseDocument decodes one JSON object into a Document and validates the envelope.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func subObject(d Document, key string) map[string]any {
	v, ok := d[key]
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case map[string]any:
		return m
	case Document:
		return m
	}
	return nil
}
