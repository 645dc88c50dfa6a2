package wire

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldError(t *testing.T) {
	err := wrapWithField(wrapWithIndex(wrapWithField(io.ErrUnexpectedEOF, "sku"), 2), "lines")

	var fe *FieldError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"lines", "[2]", "sku"}, fe.FieldPath)
	assert.Equal(t, "error at proto path lines[2].sku: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Nil(t, wrapWithField(nil, "x"))
	assert.Equal(t, "boom", (&FieldError{Err: errors.New("boom")}).Error())
}
