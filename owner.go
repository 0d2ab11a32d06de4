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

import "fmt"

// Owner is the identity of one logical transaction's claim on zero or
// more key ranges. Two Owner values are distinct unless they are the same
// pointer; Owner carries no other identity of its own. A Manager tracks
// an Owner for only as long as the Owner is contested or holding locks -
// callers are expected to hold the only strong references otherwise.
type Owner struct {
	label string

	// locks is the owner-local set of currently held lock records. Every
	// entry here also appears in the owning Manager's index; the two
	// memberships are kept consistent under the Manager's mutex, which is
	// the only lock protecting this field.
	locks map[*Lock]struct{}
}

// NewOwner returns a new, distinct Owner. label is carried only for
// diagnostics (String, test failure messages) and plays no role in
// equality or hashing - Owner identity is always pointer identity.
func NewOwner(label string) *Owner {
	return &Owner{label: label, locks: make(map[*Lock]struct{})}
}

// Label returns the diagnostic label the Owner was created with.
func (o *Owner) Label() string { return o.label }

func (o *Owner) String() string {
	if o.label == "" {
		return fmt.Sprintf("owner(%p)", o)
	}
	return fmt.Sprintf("owner(%s)", o.label)
}

// LockCount reports how many lock records this owner currently holds. It
// is meant for tests and diagnostics: like every other field of Owner, it
// is guarded by the Manager's mutex, so a caller with a concurrent Lock
// or Release outstanding for this owner must not rely on a precise
// answer.
func (o *Owner) LockCount() int {
	return len(o.locks)
}
