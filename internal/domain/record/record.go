package record

import (
	"encoding/json"
	"fmt"
)

// IDField is the key under which the record id is encoded.
const IDField = "id"

// Record is a domain object loaded for a search hit (immutable value object).
type Record struct {
	id      string
	docType string
	score   float64
	fields  map[string]any
}

// New validates and creates a Record. Fields are cloned.
func New(id, docType string, fields map[string]any) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	return Record{id: id, docType: docType, fields: cloneFields(fields)}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, docType string, score float64, fields map[string]any) Record {
	return Record{id: id, docType: docType, score: score, fields: fields}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Type returns the document type the record belongs to.
func (r *Record) Type() string { return r.docType }

// Score returns the relevance score of the hit that produced the record.
func (r *Record) Score() float64 { return r.score }

// Fields returns the record attributes.
func (r *Record) Fields() map[string]any { return r.fields }

// Get returns a single attribute.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// With returns a copy with key set to value.
func (r *Record) With(key string, value any) Record {
	fields := cloneFields(r.fields)
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[key] = value
	return Record{id: r.id, docType: r.docType, score: r.score, fields: fields}
}

// WithScore returns a copy carrying the given score.
func (r *Record) WithScore(score float64) Record {
	return Record{id: r.id, docType: r.docType, score: score, fields: r.fields}
}

// MarshalJSON encodes the attributes as a flat object with the id under IDField.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+1)
	for k, v := range r.fields {
		out[k] = v
	}
	out[IDField] = r.id
	return json.Marshal(out)
}

func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
