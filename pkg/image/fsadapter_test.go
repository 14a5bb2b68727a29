package image

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleTree(t *testing.T) *FileSystem {
	t.Helper()
	fsys := MakeEmpty(32)
	require.NoError(t, fsys.Touch(nil, "root.txt"))
	require.NoError(t, fsys.Write(nil, "root.txt", []byte("hello")))
	require.NoError(t, fsys.Mkdir(nil, "sub"))
	require.NoError(t, fsys.Touch([]string{"sub"}, "nested.txt"))
	require.NoError(t, fsys.Write([]string{"sub"}, "nested.txt", []byte("world")))
	return fsys
}

func TestFSConformsToStandardLibraryContract(t *testing.T) {
	fsys := buildSampleTree(t)
	adapter := NewFS(fsys)
	assert.NoError(t, fstest.TestFS(adapter, "root.txt", "sub", "sub/nested.txt"))
}

func TestFSOpenReadsFileContent(t *testing.T) {
	adapter := NewFS(buildSampleTree(t))
	f, err := adapter.Open("sub/nested.txt")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 32)
	n, _ := f.Read(buf)
	assert.Equal(t, "world", string(buf[:n]))
}

func TestFSOpenMissingIsErrNotExist(t *testing.T) {
	adapter := NewFS(buildSampleTree(t))
	_, err := adapter.Open("missing")
	assert.True(t, isNotExist(err))
}

func TestFSOpenNeverAutoCreates(t *testing.T) {
	fsys := MakeEmpty(16)
	adapter := NewFS(fsys)
	_, err := adapter.Open("a/b/c")
	assert.True(t, isNotExist(err))

	_, _, err2 := adapter.locate("a")
	assert.Error(t, err2, "the facade's own resolve would have materialised this directory; the adapter must not")
}

func TestFSReadDirListsEntries(t *testing.T) {
	adapter := NewFS(buildSampleTree(t))
	entries, err := adapter.ReadDir(".")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["root.txt"])
	assert.True(t, names["sub"])
}

func isNotExist(err error) bool {
	pe, ok := err.(*fs.PathError)
	if !ok {
		return false
	}
	return pe.Err == fs.ErrNotExist
}
