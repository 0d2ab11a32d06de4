package rangelock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func k(s string) Key { return []byte(s) }

func TestLock_Overlaps(t *testing.T) {
	a := &Lock{min: k("01"), max: k("05")}
	b := &Lock{min: k("03"), max: k("07")}
	assert.True(t, a.overlaps(b))
	assert.True(t, b.overlaps(a))

	c := &Lock{min: k("05"), max: k("09")}
	assert.False(t, a.overlaps(c), "half-open: [01,05) does not overlap [05,09)")
	assert.False(t, c.overlaps(a))
}

func TestLock_Overlaps_UnboundedEndpoints(t *testing.T) {
	everything := &Lock{min: nil, max: nil}
	somewhere := &Lock{min: k("ff"), max: k("ffff")}
	assert.True(t, everything.overlaps(somewhere))

	fromA := &Lock{min: k("a"), max: nil}
	toB := &Lock{min: nil, max: k("b")}
	assert.True(t, fromA.overlaps(toB))

	fromZ := &Lock{min: k("z"), max: nil}
	assert.False(t, fromZ.overlaps(toB))
}

func TestLock_Overlaps_EmptyRange(t *testing.T) {
	empty := &Lock{min: k("05"), max: k("05")}
	other := &Lock{min: k("01"), max: k("09")}
	assert.False(t, empty.overlaps(other), "an empty range [x,x) contains no key, so it can't overlap anything")
}

func TestLock_ConflictsWith(t *testing.T) {
	alice := NewOwner("alice")
	bob := NewOwner("bob")

	aliceWrite := &Lock{owner: alice, min: k("01"), max: k("09"), mode: Exclusive}
	bobRead := &Lock{owner: bob, min: k("03"), max: k("05"), mode: Shared}
	assert.True(t, aliceWrite.conflictsWith(bobRead))
	assert.True(t, bobRead.conflictsWith(aliceWrite))

	bobWrite := &Lock{owner: bob, min: k("03"), max: k("05"), mode: Exclusive}
	assert.True(t, aliceWrite.conflictsWith(bobWrite))

	aliceRead := &Lock{owner: alice, min: k("03"), max: k("05"), mode: Shared}
	bobRead2 := &Lock{owner: bob, min: k("03"), max: k("05"), mode: Shared}
	assert.False(t, aliceRead.conflictsWith(bobRead2), "two shared locks never conflict")
}

func TestLock_ConflictsWith_SameOwnerNeverConflicts(t *testing.T) {
	alice := NewOwner("alice")
	w := &Lock{owner: alice, min: k("01"), max: k("09"), mode: Exclusive}
	r := &Lock{owner: alice, min: k("03"), max: k("05"), mode: Shared}
	assert.False(t, w.conflictsWith(r))
	assert.False(t, r.conflictsWith(w))
}

func TestLock_ConflictsWith_NonOverlappingNeverConflicts(t *testing.T) {
	alice := NewOwner("alice")
	bob := NewOwner("bob")
	a := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Exclusive}
	b := &Lock{owner: bob, min: k("05"), max: k("09"), mode: Exclusive}
	assert.False(t, a.conflictsWith(b))
}

func TestLock_MergeWith_OverlappingSameOwnerSameMode(t *testing.T) {
	alice := NewOwner("alice")
	a := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Shared}
	b := &Lock{owner: alice, min: k("03"), max: k("09"), mode: Shared}

	merged, ok := a.mergeWith(b)
	assert.True(t, ok)
	assert.Equal(t, k("01"), merged.min)
	assert.Equal(t, k("09"), merged.max)
	assert.Equal(t, Shared, merged.mode)
	assert.Same(t, alice, merged.owner)
}

func TestLock_MergeWith_AdjacentSameOwnerSameMode(t *testing.T) {
	alice := NewOwner("alice")
	a := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Shared}
	b := &Lock{owner: alice, min: k("05"), max: k("09"), mode: Shared}

	merged, ok := a.mergeWith(b)
	assert.True(t, ok)
	assert.Equal(t, k("01"), merged.min)
	assert.Equal(t, k("09"), merged.max)
}

func TestLock_MergeWith_NonAdjacentDoesNotMerge(t *testing.T) {
	alice := NewOwner("alice")
	a := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Shared}
	b := &Lock{owner: alice, min: k("06"), max: k("09"), mode: Shared}

	_, ok := a.mergeWith(b)
	assert.False(t, ok)
}

func TestLock_MergeWith_DifferentOwnerDoesNotMerge(t *testing.T) {
	alice := NewOwner("alice")
	bob := NewOwner("bob")
	a := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Shared}
	b := &Lock{owner: bob, min: k("03"), max: k("09"), mode: Shared}

	_, ok := a.mergeWith(b)
	assert.False(t, ok)
}

func TestLock_MergeWith_DifferentModeDoesNotMerge(t *testing.T) {
	alice := NewOwner("alice")
	w := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Exclusive}
	r := &Lock{owner: alice, min: k("01"), max: k("05"), mode: Shared}

	_, ok := w.mergeWith(r)
	assert.False(t, ok, "write-with-read of the same owner must not merge")
}

func TestLock_MergeWith_UnboundedEndpointsNeverAdjacent(t *testing.T) {
	alice := NewOwner("alice")
	a := &Lock{owner: alice, min: nil, max: k("05"), mode: Shared}
	b := &Lock{owner: alice, min: k("09"), max: nil, mode: Shared}
	_, ok := a.mergeWith(b)
	assert.False(t, ok, "two unbounded-facing sides are never adjacent to each other")
}
