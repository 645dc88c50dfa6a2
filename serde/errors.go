package serde

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFieldKind is returned for group fields. It aborts the pass and
	// anything already written to the encoder is incomplete.
	ErrUnsupportedFieldKind = errors.New("unsupported field kind")

	// ErrSchemaMismatch is returned when a provider's value or shape disagrees with
	// the schema it declared.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMaxDepth is returned when message nesting exceeds the configured depth.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")
)

// FieldError carries the proto path at which a serialization error occurred.
type FieldError struct {
	FieldPath []string // e.g., ["order", "items", "[2]", "sku"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("error at proto path %s: %v", e.Path(), e.Err)
}

// Path renders the field path with index segments attached to their field,
// e.g. "order.items[2].sku". Paths longer than 2*pathEdge segments keep only
// both ends, e.g. "next.next.<9970 more>.next.label".
func (e *FieldError) Path() string {
	segs := e.FieldPath
	if len(segs) <= 2*pathEdge {
		return joinPath(segs)
	}
	return fmt.Sprintf("%s.<%d more>.%s", joinPath(segs[:pathEdge]), len(segs)-2*pathEdge, joinPath(segs[len(segs)-pathEdge:]))
}

const pathEdge = 16

func joinPath(segs []string) string {
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// encoderError marks an error produced by the destination encoder. It travels up
// the walk untouched by path wrapping and is unwrapped before returning to the
// caller, so encoder errors reach the caller as the same value.
type encoderError struct {
	err error
}

func (e *encoderError) Error() string { return e.err.Error() }
func (e *encoderError) Unwrap() error { return e.err }

func fromEncoder(err error) error {
	if err == nil {
		return nil
	}
	return &encoderError{err: err}
}

// pathError is the in-flight form of a FieldError. Segments are appended leaf
// first as the error climbs the walk and reversed once by settle.
type pathError struct {
	rev []string
	err error
}

func (e *pathError) Error() string { return e.err.Error() }
func (e *pathError) Unwrap() error { return e.err }

// wrapWithField prefixes the error path with a field name.
func wrapWithField(err error, fieldName string) error {
	return wrapWithSegment(err, fieldName)
}

// wrapWithIndex prefixes the error path with a sequence index.
func wrapWithIndex(err error, i int) error {
	return wrapWithSegment(err, "["+strconv.Itoa(i)+"]")
}

func wrapWithSegment(err error, seg string) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *encoderError:
		return err
	case *pathError:
		e.rev = append(e.rev, seg)
		return e
	case *FieldError:
		rev := make([]string, 0, len(e.FieldPath)+1)
		for i := len(e.FieldPath) - 1; i >= 0; i-- {
			rev = append(rev, e.FieldPath[i])
		}
		return &pathError{rev: append(rev, seg), err: e.Err}
	default:
		return &pathError{rev: []string{seg}, err: err}
	}
}

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSchemaMismatch}, args...)...)
}

// settle turns an error leaving the walk into what callers see: encoder errors
// as the value the encoder returned, everything else with its path in root
// first order.
func settle(err error) error {
	switch e := err.(type) {
	case *encoderError:
		return e.err
	case *pathError:
		path := make([]string, len(e.rev))
		for i, seg := range e.rev {
			path[len(path)-1-i] = seg
		}
		return &FieldError{FieldPath: path, Err: e.err}
	default:
		return err
	}
}
