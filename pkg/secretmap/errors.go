package secretmap

import "fmt"

// MissingPayloadError indicates that a required payload was absent or empty.
type MissingPayloadError struct {
	// Name is the secret's diagnostic name.
	Name string
}

func (e *MissingPayloadError) Error() string {
	return fmt.Sprintf("secret %q: payload is missing or empty", e.Name)
}

// InvalidJSONError indicates that a payload did not parse as JSON after
// trimming and quote unwrapping.
type InvalidJSONError struct {
	Name string
	Err  error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("secret %q: payload is not valid JSON: %v", e.Name, e.Err)
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Err
}

// InvalidShapeError indicates that a decoded value failed its kind's
// structural check. It is raised before any variable is written.
type InvalidShapeError struct {
	Name string
	Kind Kind
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("secret %q (%s): decoded value does not match the expected shape", e.Name, e.Kind)
}

// MissingFieldError indicates that a mapping entry references a field absent
// from the decoded value.
type MissingFieldError struct {
	Name     string
	Kind     Kind
	Field    string
	Variable string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("secret %q (%s): field %q (mapped to %s) is missing", e.Name, e.Kind, e.Field, e.Variable)
}

// NullFieldError indicates that a mapping entry's field resolved to null.
type NullFieldError struct {
	Name     string
	Kind     Kind
	Field    string
	Variable string
}

func (e *NullFieldError) Error() string {
	return fmt.Sprintf("secret %q (%s): field %q (mapped to %s) is null", e.Name, e.Kind, e.Field, e.Variable)
}
