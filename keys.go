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

import "bytes"

// Key is a byte-sequence key of the underlying keyspace. A nil Key means
// "absent": as a lower bound it stands for the smallest possible key; as
// an upper bound it stands for beyond every key. A non-nil, zero-length
// Key ([]byte{}) is a real, ordinary key and is not treated as absent.
type Key = []byte

// CompareKeys orders two real (non-absent) keys lexicographically by byte
// value, the same ordering the underlying key/value store uses.
func CompareKeys(a, b Key) int {
	return bytes.Compare(a, b)
}

// NextKey returns the smallest key strictly greater than k under
// CompareKeys. It is used to turn a strict "greater than k" query into an
// inclusive lower bound over an ordered set: max > k iff max >= NextKey(k).
func NextKey(k Key) Key {
	next := make(Key, len(k)+1)
	copy(next, k)
	return next
}

// boundLess orders a single bound (a lock's min or max, nil meaning
// absent) against another bound of the same kind. maxSide selects which
// sentinel nil stands for: false treats nil as -infinity (appropriate for
// min bounds), true treats nil as +infinity (appropriate for max bounds).
func boundLess(a, b Key, maxSide bool) bool {
	if a == nil && b == nil {
		return false
	}
	if a == nil {
		return !maxSide
	}
	if b == nil {
		return maxSide
	}
	return bytes.Compare(a, b) < 0
}

// boundEqual reports whether two bounds of the same kind denote the same
// point: both absent, or both present and byte-equal.
func boundEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a, b)
}

// minLessThanMax reports whether lower bound min sorts strictly before
// upper bound max, treating a nil min as -infinity and a nil max as
// +infinity. This is the half-open overlap primitive of §3: two ranges
// A and B overlap iff A.min < B.max and B.min < A.max.
func minLessThanMax(min, max Key) bool {
	if min == nil || max == nil {
		return true
	}
	return bytes.Compare(min, max) < 0
}

// minLessOrEqualMax reports whether min <= max, treating absent bounds as
// always satisfying the comparison (an absent bound is never "inverted"
// against a present one, and two absent bounds of the same kind are never
// compared by callers of this function).
func minLessOrEqualMax(min, max Key) bool {
	if min == nil || max == nil {
		return true
	}
	return bytes.Compare(min, max) <= 0
}

// lowerOfMins returns the bound that sorts first among two min-side
// bounds (absent sorts first of all).
func lowerOfMins(a, b Key) Key {
	if a == nil || b == nil {
		return nil
	}
	if bytes.Compare(a, b) <= 0 {
		return a
	}
	return b
}

// higherOfMaxes returns the bound that sorts last among two max-side
// bounds (absent sorts last of all).
func higherOfMaxes(a, b Key) Key {
	if a == nil || b == nil {
		return nil
	}
	if bytes.Compare(a, b) >= 0 {
		return a
	}
	return b
}
