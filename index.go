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

import "github.com/google/btree"

// btreeDegree is the branching factor passed to google/btree. The index
// is expected to hold at most a handful of locks per contested owner, so
// this is chosen for cache-friendly node size rather than tuned for any
// particular workload.
const btreeDegree = 32

// lockIndex is the manager's index of every currently active lock: two
// ordered sets over the same population, one ordered by min and one by
// max, per §3/§4.3. Both trees always contain exactly the same elements.
//
// Because more than one lock can share the same min (or the same max),
// each Lock's id field breaks ties so that the trees' strict total order
// never collapses two distinct locks into one slot.
type lockIndex struct {
	byMin *btree.BTreeG[*Lock]
	byMax *btree.BTreeG[*Lock]
	size  int
}

func newLockIndex() *lockIndex {
	return &lockIndex{
		byMin: btree.NewG(btreeDegree, lessByMin),
		byMax: btree.NewG(btreeDegree, lessByMax),
	}
}

func lessByMin(a, b *Lock) bool {
	if boundLess(a.min, b.min, false) {
		return true
	}
	if boundLess(b.min, a.min, false) {
		return false
	}
	return a.id < b.id
}

func lessByMax(a, b *Lock) bool {
	if boundLess(a.max, b.max, true) {
		return true
	}
	if boundLess(b.max, a.max, true) {
		return false
	}
	return a.id < b.id
}

// insert adds l to both ordered sets. l must carry a nonzero id distinct
// from every lock already in the index.
func (idx *lockIndex) insert(l *Lock) {
	idx.byMin.ReplaceOrInsert(l)
	idx.byMax.ReplaceOrInsert(l)
	idx.size++
}

// remove deletes l from both ordered sets.
func (idx *lockIndex) remove(l *Lock) {
	idx.byMin.Delete(l)
	idx.byMax.Delete(l)
	idx.size--
}

// len reports the number of active locks in the index.
func (idx *lockIndex) len() int {
	return idx.size
}

// all returns every lock in the index, ordered by min, for diagnostics
// and property tests. It is not on any hot path.
func (idx *lockIndex) all() []*Lock {
	out := make([]*Lock, 0, idx.size)
	idx.byMin.Ascend(func(l *Lock) bool {
		out = append(out, l)
		return true
	})
	return out
}

// overlapping returns every lock in the index whose range intersects
// [min, max), per §4.3:
//
//  1. lhs = locks whose min < max (all of the index if max is absent).
//  2. rhs = locks whose max > min (all of the index if min is absent),
//     computed as max >= NextKey(min) over the by-max set.
//  3. the result is lhs ∩ rhs, computed by building a membership set from
//     the larger slice and iterating the smaller one.
//
// Empty ranges contain no key: an empty query returns nothing, and stored
// empty ranges (which pass both comparisons when they sit strictly inside
// the query) are dropped from the result.
func (idx *lockIndex) overlapping(min, max Key) []*Lock {
	if !minLessThanMax(min, max) {
		return nil
	}
	lhs := idx.minsBefore(max)
	rhs := idx.maxesAfter(min)
	out := intersectBySmaller(lhs, rhs)
	n := 0
	for _, l := range out {
		if minLessThanMax(l.min, l.max) {
			out[n] = l
			n++
		}
	}
	return out[:n]
}

// overlappingOrTouching returns every lock in the index whose range
// intersects [min, max) or touches it end-to-end, i.e. every lock that
// mergeWith could possibly absorb. It relaxes both of overlapping's
// comparisons from strict to inclusive:
//
//  1. lhs = locks whose min <= max, i.e. min < NextKey(max).
//  2. rhs = locks whose max >= min.
//
// Candidates this returns still need mergeWith (or conflictsWith) applied;
// it is a superset used so that adjacency - which by definition shares no
// key with [min, max) - isn't invisible to the merge scan the way it is to
// overlapping.
func (idx *lockIndex) overlappingOrTouching(min, max Key) []*Lock {
	lhs := idx.minsBeforeOrEqual(max)
	rhs := idx.maxesAfterOrEqual(min)
	return intersectBySmaller(lhs, rhs)
}

// minsBefore returns every lock whose min is strictly less than max (or
// every lock, if max is absent/unbounded).
func (idx *lockIndex) minsBefore(max Key) []*Lock {
	out := make([]*Lock, 0, idx.size)
	collect := func(l *Lock) bool {
		out = append(out, l)
		return true
	}
	if max == nil {
		idx.byMin.Ascend(collect)
		return out
	}
	// pivot.id == 0 sorts before every real lock anchored at the same min,
	// so AscendLessThan excludes locks whose min exactly equals max -
	// min < max must be strict.
	idx.byMin.AscendLessThan(&Lock{min: max}, collect)
	return out
}

// maxesAfter returns every lock whose max is strictly greater than min
// (or every lock, if min is absent/unbounded).
func (idx *lockIndex) maxesAfter(min Key) []*Lock {
	out := make([]*Lock, 0, idx.size)
	collect := func(l *Lock) bool {
		out = append(out, l)
		return true
	}
	if min == nil {
		idx.byMax.Ascend(collect)
		return out
	}
	// pivot.id == 0 sorts before every real lock anchored at NextKey(min),
	// so AscendGreaterOrEqual includes locks whose max exactly equals
	// NextKey(min) - max >= NextKey(min) is equivalent to max > min.
	idx.byMax.AscendGreaterOrEqual(&Lock{max: NextKey(min)}, collect)
	return out
}

// minsBeforeOrEqual returns every lock whose min is less than or equal to
// max (or every lock, if max is absent/unbounded) - the inclusive twin of
// minsBefore, used to find locks that merely touch max rather than cross
// it.
func (idx *lockIndex) minsBeforeOrEqual(max Key) []*Lock {
	if max == nil {
		return idx.minsBefore(nil)
	}
	return idx.minsBefore(NextKey(max))
}

// maxesAfterOrEqual returns every lock whose max is greater than or equal
// to min (or every lock, if min is absent/unbounded) - the inclusive twin
// of maxesAfter, used to find locks that merely touch min rather than
// cross it.
func (idx *lockIndex) maxesAfterOrEqual(min Key) []*Lock {
	out := make([]*Lock, 0, idx.size)
	collect := func(l *Lock) bool {
		out = append(out, l)
		return true
	}
	if min == nil {
		idx.byMax.Ascend(collect)
		return out
	}
	// pivot.id == 0 sorts before every real lock whose max exactly equals
	// min, so AscendGreaterOrEqual includes those ties - max >= min, not
	// max > min.
	idx.byMax.AscendGreaterOrEqual(&Lock{max: min}, collect)
	return out
}

// intersectBySmaller returns the elements common to a and b, iterating
// whichever of the two is shorter and testing membership against a set
// built from the other.
func intersectBySmaller(a, b []*Lock) []*Lock {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return nil
	}
	inB := make(map[*Lock]struct{}, len(b))
	for _, l := range b {
		inB[l] = struct{}{}
	}
	out := make([]*Lock, 0, len(a))
	for _, l := range a {
		if _, ok := inB[l]; ok {
			out = append(out, l)
		}
	}
	return out
}
