package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrWireType is returned in strict mode when a field arrives with a wire type
	// its declared type cannot use.
	ErrWireType = errors.New("wire type mismatch")

	// ErrUnknownEnumNumber is returned when an enum number has no declared value
	// and AllowUnknownEnumNumberDecode is off.
	ErrUnknownEnumNumber = errors.New("unknown enum number")

	// ErrNestingTooDeep is returned when embedded messages nest beyond MaxNesting.
	ErrNestingTooDeep = errors.New("message nesting too deep")
)

// FieldError represents a decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["order", "lines", "[2]", "price"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	var b strings.Builder
	for i, seg := range e.FieldPath {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return fmt.Sprintf("error at proto path %s: %v", b.String(), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapWithField wraps an error with a field name
func wrapWithField(err error, fieldName string) error {
	return wrapWithSegment(err, fieldName)
}

// wrapWithIndex wraps an error with a repeated field index
func wrapWithIndex(err error, i int) error {
	return wrapWithSegment(err, "["+strconv.Itoa(i)+"]")
}

func wrapWithSegment(err error, seg string) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{seg}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}
	return &FieldError{
		FieldPath: []string{seg},
		Err:       err,
	}
}
