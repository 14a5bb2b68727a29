package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirEntriesEncodeDecodeRoundTrip(t *testing.T) {
	entries := []DirEnt{
		{Name: "alpha", Ino: 1},
		{Name: "beta", Ino: 300},
	}
	encoded := EncodeDirEntries(entries)
	decoded := DecodeDirEntries(encoded)
	assert.Equal(t, entries, decoded)
}

func TestDirEntriesEncodeIsRealLittleEndianAboveByteRange(t *testing.T) {
	// ino 300 = 0x012C; the reference C++ source's buggy high-byte cast
	// would store 0x2C twice instead of 0x2C, 0x01. This pins the fix.
	encoded := EncodeDirEntries([]DirEnt{{Name: "x", Ino: 300}})
	// "x" + NUL + lo + hi
	require.Len(t, encoded, len("x")+1+2)
	lo, hi := encoded[len(encoded)-2], encoded[len(encoded)-1]
	assert.Equal(t, byte(0x2C), lo)
	assert.Equal(t, byte(0x01), hi)
}

func TestLookupDirEntry(t *testing.T) {
	entries := []DirEnt{{Name: "a", Ino: 1}, {Name: "b", Ino: 2}}
	assert.Equal(t, uint16(2), LookupDirEntry(entries, "b"))
	assert.Equal(t, uint16(0), LookupDirEntry(entries, "missing"))
}

func TestAddDirEntryRejectsDuplicateName(t *testing.T) {
	entries := []DirEnt{{Name: "a", Ino: 1}}
	_, err := AddDirEntry(entries, "a", 2)
	assert.Error(t, err)

	entries, err = AddDirEntry(entries, "b", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRemoveDirEntry(t *testing.T) {
	entries := []DirEnt{{Name: "a", Ino: 1}, {Name: "b", Ino: 2}}
	entries, err := RemoveDirEntry(entries, "a")
	require.NoError(t, err)
	assert.Equal(t, []DirEnt{{Name: "b", Ino: 2}}, entries)

	_, err = RemoveDirEntry(entries, "a")
	assert.Error(t, err)
}
