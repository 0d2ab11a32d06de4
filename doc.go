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

// Package rangelock implements a range lock manager: an in-process
// arbiter of read (shared) and write (exclusive) locks over half-open
// byte-key ranges `[min, max)` of a single ordered key/value keyspace.
//
// Before reading a range, a caller acquires a shared lock on it; before
// writing, an exclusive lock. The manager never touches the underlying
// store itself, it only decides who is allowed to hold what, and blocks
// callers whose request conflicts with another owner's until the
// conflicting lock is released or its holder's hold timeout expires.
//
// ## Overview
//
// Two locks conflict when their ranges overlap, they belong to different
// owners, and at least one of them is exclusive. A conflicting request
// blocks on the manager's condition variable until the conflict clears or
// a per-call wait timeout elapses. Locks belonging to the same owner never
// conflict with each other; instead, overlapping or immediately-adjacent
// same-owner, same-mode locks are merged into a single record so that a
// transaction scanning a key range in small steps does not accumulate an
// unbounded number of lock records.
//
// A second, independent timeout bounds how long an owner may hold a lock
// that is actively blocking someone else (the "hold timeout"). An owner
// that never contests with anyone is never subject to it. Once expired,
// all of that owner's locks are force-released and the owner learns of
// this, as HoldTimeoutExpired, the next time it calls Lock or Release.
//
// All manager state is protected by a single mutex; there is no
// fine-grained locking and no lock-free path. Contention is resolved
// entirely by the wait/retry protocol described above, matching the
// single-mutex, condvar-broadcast design that this package's sibling
// intention-lock ancestor used for its own four-state matrix:
// register-and-check while holding the mutex, wait on the condvar while
// incompatible, broadcast on every change that might unblock a waiter.
package rangelock
