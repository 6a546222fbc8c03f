package recast

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrCoercion indicates a scalar could not be converted to its declared kind.
	ErrCoercion = errors.New("coercion failed")

	// ErrSchemaMismatch indicates a mapping carried keys no known schema accepts.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrReconstruction indicates a record constructor rejected its arguments.
	ErrReconstruction = errors.New("reconstruction failed")

	// ErrUnresolvedReference indicates a forward reference named no registered record.
	// Only returned in strict mode; otherwise the condition is a warning.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrNotRecord indicates a type or value is not a struct record.
	ErrNotRecord = errors.New("not a record type")

	// ErrUnencodable indicates a value has no tree representation.
	ErrUnencodable = errors.New("unencodable value")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// CoercionError reports a value that could not be converted to a field's kind.
type CoercionError struct {
	Type  string // Record type owning the field, if any
	Field string // Field name, if any
	Kind  string // Target kind (e.g. "int", "bool", "record")
	Value any    // Offending raw value
	Cause error  // Underlying conversion error
}

func (e *CoercionError) Error() string {
	var b strings.Builder
	b.WriteString("cannot coerce ")
	fmt.Fprintf(&b, "%#v to %s", e.Value, e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s", e.Field)
		if e.Type != "" {
			fmt.Fprintf(&b, " of %s", e.Type)
		}
		b.WriteByte(')')
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

// SchemaMismatchError reports keys left over after subtype resolution.
type SchemaMismatchError struct {
	Type string   // Record type being decoded
	Keys []string // Unexpected keys, in input order
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: %s has no fields %s", ErrSchemaMismatch.Error(), e.Type, strings.Join(e.Keys, ", "))
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// ReconstructionError reports a constructor that rejected its arguments.
// It unwraps to both ErrReconstruction and the constructor's own error.
type ReconstructionError struct {
	Type  string   // Record type that failed to construct
	Args  []string // Argument keys that were attempted
	Cause error    // Constructor error
}

func (e *ReconstructionError) Error() string {
	msg := fmt.Sprintf("unable to reconstruct %s from arguments [%s]", e.Type, strings.Join(e.Args, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ReconstructionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrReconstruction}
	}
	return []error{ErrReconstruction, e.Cause}
}

// ReferenceError reports a forward reference that matched no record.
type ReferenceError struct {
	Name  string // Referenced type name
	Field string // Field carrying the reference
}

func (e *ReferenceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q (field %s)", ErrUnresolvedReference.Error(), e.Name, e.Field)
	}
	return fmt.Sprintf("%s %q", ErrUnresolvedReference.Error(), e.Name)
}

func (e *ReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
