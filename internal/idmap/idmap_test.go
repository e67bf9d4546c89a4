package idmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlabReuse(t *testing.T) {
	s := NewSlab[string]()

	a := "alpha"
	b := "beta"

	idA := s.Insert(&a)
	idB := s.Insert(&b)
	require.NotEqual(t, idA, idB)
	require.Equal(t, &a, s.Get(idA))

	s.Remove(idA)
	require.Nil(t, s.Get(idA))

	c := "gamma"
	idC := s.Insert(&c)
	require.Equal(t, idA, idC, "freed slot should be reused before growing")
}

func TestSlabEach(t *testing.T) {
	s := NewSlab[int]()
	v1, v2 := 1, 2
	s.Insert(&v1)
	s.Insert(&v2)

	seen := 0
	s.Each(func(id TransientID, v *int) { seen += *v })
	require.Equal(t, 3, seen)
}

func TestStableMapMonotonic(t *testing.T) {
	m := NewStableMap()

	s1 := m.Pin(1)
	s2 := m.Pin(2)
	require.Less(t, uint64(s1), uint64(s2))

	// repinning returns the same stable ID
	require.Equal(t, s1, m.Pin(1))
}

func TestStableMapForgetKeepsCounter(t *testing.T) {
	m := NewStableMap()
	s1 := m.Pin(5)
	m.Forget(5)

	_, ok := m.Transient(s1)
	require.False(t, ok)

	s2 := m.Pin(6)
	require.NotEqual(t, s1, s2, "stable IDs must never be reissued")
}

func TestStableMapAdopt(t *testing.T) {
	m := NewStableMap()
	ok := m.Adopt(100, 3)
	require.True(t, ok)

	// counter must move past the adopted value
	require.Greater(t, uint64(m.Counter()), uint64(100))

	tid, ok := m.Transient(100)
	require.True(t, ok)
	require.Equal(t, TransientID(3), tid)

	require.False(t, m.Adopt(100, 4), "re-adopting a stable ID under a different transient ID must fail")
}
