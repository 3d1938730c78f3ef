package secretmap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/systmms/secretmap/pkg/varstore"
)

// Mapping is a table from a secret's field name to the target variable name
// it should be written as.
type Mapping map[string]string

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for field, variable := range m {
		out[field] = variable
	}
	return out
}

// Merge returns a new mapping with overrides applied field by field on top
// of m. Neither input is modified.
func (m Mapping) Merge(overrides Mapping) Mapping {
	out := m.Clone()
	for field, variable := range overrides {
		out[field] = variable
	}
	return out
}

// Fields returns the mapped field names in sorted order. Projection walks
// the mapping in this order, which stands in for insertion order since Go
// maps do not keep one.
func (m Mapping) Fields() []string {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Variables returns the target variable names in field order.
func (m Mapping) Variables() []string {
	fields := m.Fields()
	vars := make([]string, 0, len(fields))
	for _, field := range fields {
		vars = append(vars, m[field])
	}
	return vars
}

// project validates the decoded value against the kind and writes each
// mapped field into the store. The shape check runs before any write, so a
// shape failure touches nothing. Field-level failures are fail-fast with no
// rollback: entries projected before the failing one stay written.
func project(store *varstore.Store, name string, value any, kind Kind, mapping Mapping) error {
	if !ValidShape(value, kind) {
		return &InvalidShapeError{Name: name, Kind: kind}
	}
	obj := value.(map[string]any)

	for _, field := range mapping.Fields() {
		variable := mapping[field]

		fieldValue, present := obj[field]
		if !present {
			return &MissingFieldError{Name: name, Kind: kind, Field: field, Variable: variable}
		}
		if fieldValue == nil {
			return &NullFieldError{Name: name, Kind: kind, Field: field, Variable: variable}
		}
		store.Set(variable, stringify(fieldValue))
	}
	return nil
}

// stringify renders a decoded JSON value as variable text. Required fields
// are guaranteed text by the shape check; this covers mapped extra fields
// that may carry other JSON types.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
