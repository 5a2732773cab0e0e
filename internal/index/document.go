package index

import (
	"fmt"
	"maps"
)

// Document is the schema-free field bag indexed for one entity.
// It exists only for the duration of a write or as a search hit.
type Document map[string]any

// NewDocument returns an empty document.
func NewDocument() Document {
	return make(Document)
}

// Set stores a field value and returns the document for chaining.
func (d Document) Set(field string, value any) Document {
	d[field] = value
	return d
}

// Get returns a field rendered as a string, or "" when absent.
func (d Document) Get(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	return maps.Clone(d)
}

// TermKey addresses exactly one entity's document for update and delete.
type TermKey struct {
	Field string
	Value string
}

// String implements fmt.Stringer.
func (k TermKey) String() string {
	return k.Field + ":" + k.Value
}
