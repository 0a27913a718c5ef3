package generic

import (
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	s := NewSet[string]()
	assert.Equal(0, s.Count())
	assert.False(s.Contains("mp4"))
	assert.True(s.Add("mp4"))
	assert.Equal(1, s.Count())
	assert.True(s.Contains("mp4"))
	assert.False(s.Add("mp4"))
	assert.Equal(1, s.Count())
	assert.True(s.Remove("mp4"))
	assert.False(s.Contains("mp4"))
	assert.False(s.Remove("mp4"))
	assert.Equal(0, s.Count())

	s2 := NewSet("webm", "mp4", "3gp")
	assert.True(s2.Contains("mp4", "webm"))
	assert.False(s2.Contains("mp4", "avi"))
	items := s2.ToSlice()
	sort.Strings(items)
	assert.Equal([]string{"3gp", "mp4", "webm"}, items)
}
