package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeFormula(t *testing.T) {
	assert.Equal(t, 59*16+4, Size(16))
	assert.Equal(t, 4, Size(0))
}

func TestMakeEmptyDumpLoadRoundTrip(t *testing.T) {
	fs := MakeEmpty(16)
	require.NoError(t, fs.Touch(nil, "readme"))
	require.NoError(t, fs.Write(nil, "readme", []byte("hello world")))

	dumped := fs.Dump()
	assert.Len(t, dumped, Size(16))

	loaded, err := Load(dumped)
	require.NoError(t, err)

	content, err := loaded.Get(nil, "readme")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), content)
}

func TestLoadRejectsTruncatedImage(t *testing.T) {
	fs := MakeEmpty(8)
	dumped := fs.Dump()
	_, err := Load(dumped[:len(dumped)-1])
	assert.Error(t, err)
}

func TestLoadRejectsTrailingBytes(t *testing.T) {
	fs := MakeEmpty(8)
	dumped := append(fs.Dump(), 0xFF)
	_, err := Load(dumped)
	assert.Error(t, err)
}

func TestLoadRejectsMismatchedBitmapSizes(t *testing.T) {
	var raw []byte
	raw = NewBitmap(8).Encode(raw)
	raw = NewInodes(8).Encode(raw)
	raw = NewBitmap(16).Encode(raw)
	raw = NewBlocks(8).Encode(raw)

	_, err := Load(raw)
	assert.Error(t, err)
}
