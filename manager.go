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

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Result classifies the outcome of Lock and Release.
type Result int

const (
	// Success indicates the lock was acquired (Lock) or that release ran
	// against a live, unexpired owner (Release).
	Success Result = iota
	// WaitTimeoutExpired indicates Lock's per-call wait timeout elapsed
	// before the candidate became admissible.
	WaitTimeoutExpired
	// HoldTimeoutExpired indicates the owner's hold-timeout clock expired;
	// all of its locks have been force-released and the owner is dead to
	// this Manager.
	HoldTimeoutExpired
	// Interrupted indicates the context passed to Lock was done before
	// the candidate became admissible. Like WaitTimeoutExpired, this is
	// never returned by Release, which never blocks.
	Interrupted
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case WaitTimeoutExpired:
		return "wait timeout expired"
	case HoldTimeoutExpired:
		return "hold timeout expired"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("rangelock.Result(%d)", int(r))
	}
}

// Argument-precondition errors (§7.1). The manager's state is unchanged
// whenever one of these is returned.
var (
	ErrNilOwner      = errors.New("rangelock: owner must not be nil")
	ErrNegativeWait  = errors.New("rangelock: wait duration must not be negative")
	ErrInvertedRange = errors.New("rangelock: min key must not be greater than max key")
)

// maxTimeout is the clamp applied to both the hold timeout and any
// individual call's wait timeout, per §4.5/§6, to keep deadline
// arithmetic from overflowing time.Time.
const maxTimeout = 10 * 365 * 24 * time.Hour

// deadlineEntry is the hold-deadline table's value type (§3): either a
// future deadline, or the "expired" marker once that deadline has
// elapsed and been observed by a conflict check.
type deadlineEntry struct {
	at      time.Time
	expired bool
}

// Manager arbitrates read and write locks over half-open byte-key ranges
// for many concurrent owners. All exported methods are safe to call from
// multiple goroutines; internally, every operation is serialized by a
// single mutex, and the condition variable it guards is the manager's
// sole suspension point (§5).
type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond

	idx         *lockIndex
	nextID      uint64
	holdTimeout time.Duration
	deadlines   map[*Owner]*deadlineEntry
}

// New returns an empty Manager with no hold timeout (unlimited).
func New() *Manager {
	m := &Manager{
		idx:       newLockIndex(),
		deadlines: make(map[*Owner]*deadlineEntry),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// SetHoldTimeout sets how long an owner may hold a contested lock before
// being force-released. Zero means unlimited, the default. Negative
// values are treated as zero; values over ten years are clamped to ten
// years.
func (m *Manager) SetHoldTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if d > maxTimeout {
		d = maxTimeout
	}
	m.mu.Lock()
	m.holdTimeout = d
	m.mu.Unlock()
}

// HoldTimeout returns the current hold timeout.
func (m *Manager) HoldTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holdTimeout
}

// Lock acquires a lock of the given mode over [min, max) on behalf of
// owner, blocking while the request conflicts with another owner's lock.
//
// wait bounds how long this call will block; zero means wait
// indefinitely. ctx, if non-nil and cancelable, additionally aborts the
// wait early with Interrupted. Either bound can fire first.
//
// A non-nil error indicates an argument-precondition violation (§7.1)
// and leaves the manager's state unchanged. Otherwise the returned
// Result classifies the outcome per §4.7/§4.7.1.
func (m *Manager) Lock(ctx context.Context, owner *Owner, min, max Key, mode Mode, wait time.Duration) (Result, error) {
	if owner == nil {
		return 0, ErrNilOwner
	}
	if wait < 0 {
		return 0, ErrNegativeWait
	}
	if !minLessOrEqualMax(min, max) {
		return 0, fmt.Errorf("%w: min=%x max=%x", ErrInvertedRange, min, max)
	}
	if wait > maxTimeout {
		wait = maxTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumeExpiredLocked(owner) {
		return HoldTimeoutExpired, nil
	}

	var deadline time.Time
	hasWaitDeadline := wait > 0
	if hasWaitDeadline {
		deadline = time.Now().Add(wait)
		timer := time.AfterFunc(wait, m.wake)
		defer timer.Stop()
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, m.wake)
		defer stop()
	}

	candidate := &Lock{owner: owner, min: min, max: max, mode: mode}
	var mergers []*Lock
	for {
		if m.consumeExpiredLocked(owner) {
			return HoldTimeoutExpired, nil
		}
		if ctx.Err() != nil {
			return Interrupted, nil
		}
		if m.check(candidate, &mergers) {
			m.admitLocked(candidate, mergers)
			return Success, nil
		}
		if hasWaitDeadline && !time.Now().Before(deadline) {
			return WaitTimeoutExpired, nil
		}
		m.cond.Wait()
	}
}

// Release frees every lock owner currently holds and wakes all waiters.
//
// A non-nil error indicates an argument-precondition violation. Otherwise
// the returned Result is Success, or HoldTimeoutExpired if owner's hold
// timeout had already elapsed - in which case its locks were force-
// released before this call ran, not by this call.
func (m *Manager) Release(owner *Owner) (Result, error) {
	if owner == nil {
		return 0, ErrNilOwner
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, hadEntry := m.deadlines[owner]
	expired := hadEntry && entry.expired
	if hadEntry {
		delete(m.deadlines, owner)
	}
	m.releaseOwnerLocksLocked(owner)
	m.cond.Broadcast()

	if expired {
		return HoldTimeoutExpired, nil
	}
	return Success, nil
}

// Forget drops owner's hold-deadline bookkeeping without acquiring or
// releasing any lock. It is the explicit escape hatch the Design Notes
// call for in a non-garbage-collected target: callers that created an
// Owner, contested with someone, but never call Lock or Release again
// for it can use this to let the Manager stop tracking it. It is a no-op
// if owner is nil, untracked, or still holding locks.
func (m *Manager) Forget(owner *Owner) {
	if owner == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(owner.locks) > 0 {
		return
	}
	delete(m.deadlines, owner)
}

// wake is registered as the callback for both the per-call wait timer and
// context cancellation (§4.5.2): it broadcasts so every blocked goroutine
// re-evaluates its own deadline and its own context, rather than trusting
// that a broadcast was meant for it.
func (m *Manager) wake() {
	m.mu.Lock()
	m.cond.Broadcast()
	m.mu.Unlock()
}

// consumeExpiredLocked reports whether owner's hold-deadline entry is
// marked expired, deleting the entry if so (§4.6: the owner's own next
// Lock or Release observes the expiry exactly once, then clears it). It
// never deletes a live entry - only Release and Forget do that.
func (m *Manager) consumeExpiredLocked(owner *Owner) bool {
	entry, ok := m.deadlines[owner]
	if !ok || !entry.expired {
		return false
	}
	delete(m.deadlines, owner)
	return true
}

// touchHoldDeadlineLocked is called against the owner of a lock that is
// currently conflicting with some other candidate (§4.6). It lazily
// starts that owner's hold-timeout clock the first time it is found
// blocking someone, and reports whether the clock has now elapsed,
// flipping the entry to "expired" if so. Entries are keyed by owner, not
// by lock, consistently - see the Open Question in §9.
func (m *Manager) touchHoldDeadlineLocked(owner *Owner) bool {
	entry, ok := m.deadlines[owner]
	if !ok {
		if m.holdTimeout <= 0 {
			return false
		}
		m.deadlines[owner] = &deadlineEntry{at: time.Now().Add(m.holdTimeout)}
		// Wake every waiter once the deadline passes, so a caller blocked
		// by owner re-runs check and force-releases it then.
		time.AfterFunc(m.holdTimeout, m.wake)
		return false
	}
	if entry.expired {
		return true
	}
	if !time.Now().Before(entry.at) {
		entry.expired = true
		return true
	}
	return false
}

// check implements the conflict & merge engine of §4.4. It reports
// whether candidate is admissible against the index's current contents,
// appending to *mergers every existing lock of candidate's own owner that
// candidate can absorb on admission.
//
// If a conflicting lock's owner has just had its hold timeout expire,
// that owner's locks are force-released and the overlap scan restarts
// from scratch (§9: "start over on forced release") rather than
// continuing to iterate a now-stale slice.
func (m *Manager) check(candidate *Lock, mergers *[]*Lock) bool {
	for {
		overlap := m.idx.overlapping(candidate.min, candidate.max)

		forcedRelease := false
		for _, other := range overlap {
			if !candidate.conflictsWith(other) {
				continue
			}
			if m.touchHoldDeadlineLocked(other.owner) {
				m.forceReleaseLocked(other.owner)
				forcedRelease = true
				break
			}
			return false
		}
		if forcedRelease {
			continue
		}

		*mergers = (*mergers)[:0]
		for _, other := range m.idx.overlappingOrTouching(candidate.min, candidate.max) {
			if _, ok := candidate.mergeWith(other); ok {
				*mergers = append(*mergers, other)
			}
		}
		return true
	}
}

// admitLocked performs the merge/insert phase of §4.4 for a candidate
// that check has just approved: every lock in mergers is removed from the
// index and from its owner's set, candidate is left-folded through
// mergeWith across them, and the final record is inserted into both the
// index and candidate's owner's set.
func (m *Manager) admitLocked(candidate *Lock, mergers []*Lock) {
	merged := candidate
	for _, other := range mergers {
		m.idx.remove(other)
		delete(other.owner.locks, other)
		next, ok := merged.mergeWith(other)
		if !ok {
			panic("rangelock: lock approved for merge is no longer mergeable")
		}
		merged = next
	}

	m.nextID++
	merged.id = m.nextID
	m.idx.insert(merged)
	merged.owner.locks[merged] = struct{}{}
}

// forceReleaseLocked releases every lock owner holds because its hold
// timeout has elapsed. The deadline entry itself is left in the "expired"
// state (already set by the caller) rather than deleted here, so that
// owner's own next Lock or Release observes it per §4.6.
func (m *Manager) forceReleaseLocked(owner *Owner) {
	m.releaseOwnerLocksLocked(owner)
	m.cond.Broadcast()
}

// releaseOwnerLocksLocked removes every lock owner holds from the index
// and clears owner's own set.
func (m *Manager) releaseOwnerLocksLocked(owner *Owner) {
	for l := range owner.locks {
		m.idx.remove(l)
		delete(owner.locks, l)
	}
}
