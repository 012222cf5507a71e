package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := MakeSet[string]()
	require.Equal(t, 0, s.Len())
	s.Insert("a")
	s.Insert("b")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
	require.Equal(t, 2, s.Len())
	s.Delete("a")
	assert.False(t, s.Has("a"))
	require.Equal(t, 1, s.Len())
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}
