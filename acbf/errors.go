package acbf

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates that no object has the requested identifier
	ErrNotFound = errors.New("not found")
	// ErrMalformed indicates an element that could not be turned into an object
	ErrMalformed = errors.New("malformed element")
	// ErrUnsupportedRole indicates a reference role an object does not support
	ErrUnsupportedRole = errors.New("unsupported reference role")
)

// NotFoundError is returned by lookups of unknown identifiers.
type NotFoundError struct {
	Resource string // e.g. "reference", "binary", "identified object"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// MalformedReferenceError describes one element that was skipped while
// loading a section. Loading continues after it.
type MalformedReferenceError struct {
	Element string // element name as found in the input
	Line    int    // line number in the input, 0 if unknown
	Reason  string
}

func (e *MalformedReferenceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed <%s> at line %d: %s", e.Element, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed <%s>: %s", e.Element, e.Reason)
}

func (e *MalformedReferenceError) Unwrap() error {
	return ErrMalformed
}

// UnsupportedReferenceRoleError is returned when an object is asked to act
// as an origin or target that it did not declare.
type UnsupportedReferenceRoleError struct {
	ObjectID  string
	Role      SupportedReferenceType // the role that was requested
	Supported SupportedReferenceType // the roles the object declared
}

func (e *UnsupportedReferenceRoleError) Error() string {
	return fmt.Sprintf("object %q cannot be a reference %s (supports %s)", e.ObjectID, e.Role, e.Supported)
}

func (e *UnsupportedReferenceRoleError) Unwrap() error {
	return ErrUnsupportedRole
}

// ParseError reports a syntax error in the underlying XML stream. Objects
// read before the error are kept.
type ParseError struct {
	Section string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Section, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadResult summarizes a partially successful load.
type LoadResult struct {
	// Loaded is the number of objects created.
	Loaded int
	// Skipped holds a MalformedReferenceError for every element that was
	// ignored.
	Skipped []error
}

func (r *LoadResult) add(other LoadResult) {
	r.Loaded += other.Loaded
	r.Skipped = append(r.Skipped, other.Skipped...)
}
