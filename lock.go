// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package rangelock

// Mode is the kind of access a Lock grants: Shared for concurrent
// readers, Exclusive for a single writer.
type Mode bool

const (
	// Shared allows any number of other Shared locks to coexist.
	Shared Mode = false
	// Exclusive conflicts with every other owner's lock over an
	// overlapping range, shared or exclusive.
	Exclusive Mode = true
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Lock is an immutable record of one held range lock: an owner, a
// half-open range [min, max) (either bound may be absent/nil, meaning
// unbounded below or above respectively), and a mode. Locks are never
// mutated in place; merging two locks produces a new Lock and discards
// the originals.
//
// id breaks ties between distinct locks that share the same min (or the
// same max) so that the manager's two ordered indices, which require a
// strict total order, can hold more than one lock anchored at the same
// endpoint. It plays no role in the lock's semantics and is assigned by
// the Manager only once a lock is actually inserted into the index.
type Lock struct {
	owner *Owner
	min   Key
	max   Key
	mode  Mode
	id    uint64
}

// Owner returns the lock's owner.
func (l *Lock) Owner() *Owner { return l.owner }

// Min returns the lock's lower bound, or nil if unbounded below.
func (l *Lock) Min() Key { return l.min }

// Max returns the lock's upper bound, or nil if unbounded above.
func (l *Lock) Max() Key { return l.max }

// Mode returns whether the lock is Shared or Exclusive.
func (l *Lock) Mode() Mode { return l.mode }

// overlaps reports whether the two half-open ranges share at least one
// key: l.min < other.max and other.min < l.max. An empty range [x, x)
// contains no key and so overlaps nothing.
func (l *Lock) overlaps(other *Lock) bool {
	if !minLessThanMax(l.min, l.max) || !minLessThanMax(other.min, other.max) {
		return false
	}
	return minLessThanMax(l.min, other.max) && minLessThanMax(other.min, l.max)
}

// adjacent reports whether the two ranges touch end-to-end without
// overlapping: l.max == other.min or other.max == l.min. Two ranges with
// an absent bound on the touching side are never adjacent, since an
// unbounded side has no endpoint to touch.
func (l *Lock) adjacent(other *Lock) bool {
	if l.max != nil && boundEqual(l.max, other.min) {
		return true
	}
	if other.max != nil && boundEqual(other.max, l.min) {
		return true
	}
	return false
}

// conflictsWith reports whether l and other may not both be held: their
// ranges overlap, they belong to different owners, and at least one of
// them is exclusive. Same-owner locks never conflict; an owner may
// freely widen or upgrade its own coverage, which mergeWith handles.
func (l *Lock) conflictsWith(other *Lock) bool {
	if l.owner == other.owner {
		return false
	}
	if !l.overlaps(other) {
		return false
	}
	return l.mode == Exclusive || other.mode == Exclusive
}

// mergeWith reports whether l and other can be replaced by a single lock
// covering their union, returning that lock if so. Two locks merge when
// they share an owner and a mode and their ranges overlap or touch.
// Write-with-read of the same owner never merges, since their modes
// differ and both records must remain distinct.
func (l *Lock) mergeWith(other *Lock) (*Lock, bool) {
	if l.owner != other.owner || l.mode != other.mode {
		return nil, false
	}
	if !l.overlaps(other) && !l.adjacent(other) {
		return nil, false
	}
	return &Lock{
		owner: l.owner,
		min:   lowerOfMins(l.min, other.min),
		max:   higherOfMaxes(l.max, other.max),
		mode:  l.mode,
	}, true
}
