package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedRandom always returns the same offset, clamped to range
type fixedRandom struct{ v int }

func (f fixedRandom) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

func (f fixedRandom) String(length int, alphabet string) string { return "" }

func TestShuffleWithZeroIsReverseRotation(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	Shuffle(fixedRandom{0}, len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	// i=3 swap(3,0), i=2 swap(2,0), i=1 swap(1,0)
	assert.Equal(t, []string{"b", "c", "d", "a"}, items)
}

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(New(), len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, items)
}

func TestSampleReturnsDistinctElements(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	got := Sample(New(), items, 3)

	assert.Len(t, got, 3)
	seen := map[string]bool{}
	for _, g := range got {
		assert.Contains(t, items, g)
		assert.False(t, seen[g], "duplicate %q", g)
		seen[g] = true
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
}

func TestSampleCapsAtLength(t *testing.T) {
	got := Sample(fixedRandom{0}, []int{1, 2}, 5)
	assert.ElementsMatch(t, []int{1, 2}, got)
}

func TestCryptoRandomString(t *testing.T) {
	s := New().String(12, "ab")
	assert.Len(t, s, 12)
	for _, c := range s {
		assert.Contains(t, "ab", string(c))
	}
	assert.Empty(t, New().String(0, "ab"))
}
