package sources

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the referenced entry does not exist in the
// backend.
type NotFoundError struct {
	Source string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no entry for %q", e.Source, e.Ref)
}

// AuthError indicates the backend rejected the configured credentials.
type AuthError struct {
	Source  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Source, e.Message)
}

// IsNotFound reports whether err is a missing-entry error from any source.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsAuthError reports whether err is a credential failure from any source.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
