package orderedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetKeepsFirstOccurrence(t *testing.T) {
	s := New[int64](3, 1, 3, 2, 1)
	assert.Equal(t, []int64{3, 1, 2}, s.Values())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(9))
}

func TestSetAddReportsInsertion(t *testing.T) {
	var s Set[string]
	assert.True(t, s.Add("A"))
	assert.False(t, s.Add("A"))
	assert.Equal(t, []string{"A"}, s.Values())
}

func TestSetEqualIgnoresOrder(t *testing.T) {
	assert.True(t, New("A", "B").Equal(New("B", "A")))
	assert.False(t, New("A", "B").Equal(New("A")))
	assert.False(t, New("A", "B").Equal(New("A", "C")))
	assert.True(t, New[string]().Equal(nil))
}

func TestValuesReturnsCopy(t *testing.T) {
	s := New("x", "y")
	vals := s.Values()
	vals[0] = "z"
	assert.Equal(t, []string{"x", "y"}, s.Values())
}
