package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndType(t *testing.T) {
	err := New(ErrorTypeBounds, "position out of range")
	assert.True(t, IsType(err, ErrorTypeBounds))
	assert.False(t, IsType(err, ErrorTypeIO))
	assert.Contains(t, err.Error(), "position out of range")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := Wrapf(cause, ErrorTypeIO, "flush segment %d", 3)

	require.True(t, IsType(err, ErrorTypeIO))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "flush segment 3")
}

func TestIsTypeThroughWrapping(t *testing.T) {
	inner := New(ErrorTypeCast, "bad uuid length")
	outer := fmt.Errorf("decode row: %w", inner)
	assert.True(t, IsType(outer, ErrorTypeCast))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeMalformed, "short segment").
		WithDetail("path", "idx.00001.sst").
		WithDetail("size", 4)
	assert.Equal(t, "idx.00001.sst", err.Details["path"])
	assert.Equal(t, 4, err.Details["size"])
}
