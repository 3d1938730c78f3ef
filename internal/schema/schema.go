// Package schema checks a populated variable store against the manifest's
// vars block: required variables must exist, values must match their
// declared patterns. The checks compile into a JSON Schema evaluated over
// the store snapshot.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/pkg/varstore"
)

// Violation describes one failed expectation about the variable set.
type Violation struct {
	Variable string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Variable, v.Message)
}

// Checker validates run results against variable declarations.
type Checker struct {
	vars []config.VarSpec
}

// NewChecker creates a checker for the manifest's vars block.
func NewChecker(vars []config.VarSpec) *Checker {
	return &Checker{vars: vars}
}

// Check evaluates the store against the declarations. A declaration gated
// with when_secret only applies when that secret was decoded this run.
// Violations come back sorted by variable name; an error means the check
// itself could not run.
func (c *Checker) Check(store *varstore.Store) ([]Violation, error) {
	if len(c.vars) == 0 {
		return nil, nil
	}

	schemaDoc, err := json.Marshal(c.buildSchema(store))
	if err != nil {
		return nil, fmt.Errorf("failed to build variable schema: %w", err)
	}

	document, err := json.Marshal(store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot variables: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaDoc),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("variable check failed: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, c.toViolation(desc))
	}

	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Variable < violations[j].Variable
	})
	return violations, nil
}

// buildSchema turns the declarations into a JSON Schema object. Patterns
// apply to any variable that is present; required entries only to
// declarations whose when_secret gate is open.
func (c *Checker) buildSchema(store *varstore.Store) map[string]any {
	properties := make(map[string]any)
	var required []string

	for _, spec := range c.vars {
		prop := map[string]any{"type": "string"}
		if spec.Pattern != "" {
			prop["pattern"] = spec.Pattern
		}
		properties[spec.Name] = prop

		inScope := spec.WhenSecret == "" || store.Has(spec.WhenSecret)
		if spec.Required && inScope {
			required = append(required, spec.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (c *Checker) toViolation(desc gojsonschema.ResultError) Violation {
	switch desc.Type() {
	case "required":
		name, _ := desc.Details()["property"].(string)
		return Violation{
			Variable: name,
			Message:  "required variable is not set",
		}
	case "pattern":
		return Violation{
			Variable: desc.Field(),
			Message:  fmt.Sprintf("value does not match pattern %v", desc.Details()["pattern"]),
		}
	default:
		return Violation{
			Variable: desc.Field(),
			Message:  desc.Description(),
		}
	}
}
