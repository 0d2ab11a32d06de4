package rangelock

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareKeys(t *testing.T) {
	assert.Zero(t, CompareKeys([]byte("abc"), []byte("abc")))
	assert.Negative(t, CompareKeys([]byte("abc"), []byte("abd")))
	assert.Positive(t, CompareKeys([]byte("abd"), []byte("abc")))
}

func TestNextKey(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x00},
		{0xff},
		[]byte("foo"),
	}
	for _, k := range cases {
		next := NextKey(k)
		assert.True(t, CompareKeys(k, next) < 0, "NextKey(%x) = %x must sort after %x", k, next, k)
	}
}

// TestNextKey_IsImmediateSuccessor pins down that there is no real key
// strictly between k and NextKey(k) - the property the conflict engine
// relies on to translate "max > k" into "max >= NextKey(k)".
func TestNextKey_IsImmediateSuccessor(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		k := randomKey(rng, 6)
		next := NextKey(k)
		// Any key >= next must also be > k, and no key strictly between
		// them exists because next is exactly k with a zero byte appended.
		assert.True(t, bytes.HasPrefix(next, k))
		assert.Equal(t, len(k)+1, len(next))
		assert.Equal(t, byte(0), next[len(k)])
	}
}

func TestBoundLess_MinSide(t *testing.T) {
	// absent (nil) is -infinity on the min side.
	assert.True(t, boundLess(nil, []byte("a"), false))
	assert.False(t, boundLess([]byte("a"), nil, false))
	assert.False(t, boundLess(nil, nil, false))
	assert.True(t, boundLess([]byte("a"), []byte("b"), false))
}

func TestBoundLess_MaxSide(t *testing.T) {
	// absent (nil) is +infinity on the max side.
	assert.False(t, boundLess(nil, []byte("a"), true))
	assert.True(t, boundLess([]byte("a"), nil, true))
	assert.False(t, boundLess(nil, nil, true))
	assert.True(t, boundLess([]byte("a"), []byte("b"), true))
}

func TestMinLessThanMax_UnboundedSides(t *testing.T) {
	assert.True(t, minLessThanMax(nil, nil))
	assert.True(t, minLessThanMax(nil, []byte("a")))
	assert.True(t, minLessThanMax([]byte("a"), nil))
	assert.True(t, minLessThanMax([]byte("a"), []byte("b")))
	assert.False(t, minLessThanMax([]byte("b"), []byte("a")))
	assert.False(t, minLessThanMax([]byte("a"), []byte("a")))
}

func randomKey(rng *rand.Rand, maxLen int) []byte {
	n := rng.IntN(maxLen)
	k := make([]byte, n)
	for i := range k {
		k[i] = byte(rng.IntN(256))
	}
	return k
}
