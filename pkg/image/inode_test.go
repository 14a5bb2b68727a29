package image

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInodesCreateRefcountAsymmetry(t *testing.T) {
	nodes := NewInodes(4)

	require.NoError(t, nodes.Create(1, false, 5))
	rc, err := nodes.RefCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), rc, "a fresh file starts with refcount 1")

	require.NoError(t, nodes.Create(2, true, 6))
	rc, err = nodes.RefCount(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), rc, "a fresh directory starts with refcount 0")
}

func TestInodesIncrefDecref(t *testing.T) {
	nodes := NewInodes(4)
	require.NoError(t, nodes.Create(1, false, 5))

	require.NoError(t, nodes.Incref(1))
	rc, err := nodes.RefCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), rc)

	require.NoError(t, nodes.Decref(1))
	require.NoError(t, nodes.Decref(1))
	_, err = nodes.RefCount(1)
	require.NoError(t, err)

	assert.Error(t, nodes.Decref(1), "decref below zero is rejected")
}

func TestInodesResetClearsRecord(t *testing.T) {
	nodes := NewInodes(4)
	require.NoError(t, nodes.Create(1, true, 7))
	require.NoError(t, nodes.Reset(1))

	isDir, err := nodes.IsDir(1)
	require.NoError(t, err)
	assert.False(t, isDir)
	head, err := nodes.MemBlock(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), head)
}

func TestInodesEncodeDecodeRoundTrip(t *testing.T) {
	nodes := NewInodes(3)
	require.NoError(t, nodes.Create(1, false, 9))
	require.NoError(t, nodes.Incref(1))

	encoded := nodes.Encode(nil)
	decoded, rest, err := DecodeInodes(encoded, 3)
	require.NoError(t, err)
	assert.Empty(t, rest)

	rc, err := decoded.RefCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), rc)
	head, err := decoded.MemBlock(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), head)
}

func TestInodesOutOfRangeIsCorrupt(t *testing.T) {
	nodes := NewInodes(2)
	_, err := nodes.IsDir(5)
	require.Error(t, err)

	var imgErr *Error
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, Corrupt, imgErr.Kind)
}
