package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPathRoot(t *testing.T) {
	assert.Nil(t, SplitPath("/"))
	assert.Nil(t, SplitPath(""))
}

func TestSplitPathSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("/a/b/c"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("a/b/c"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("/a/b/c/"))
}

func TestJoinPathInverse(t *testing.T) {
	assert.Equal(t, "/", JoinPath(nil))
	assert.Equal(t, "/a/b/c", JoinPath([]string{"a", "b", "c"}))
}
