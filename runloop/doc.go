// Package runloop provides the dedicated execution domain for native
// accessibility calls.
//
// The underlying accessibility API is single-threaded: it must only ever be
// touched from one specific OS thread and is not reentrant. Executor owns a
// long-lived goroutine locked to an OS thread; every native call in the
// module is funneled through it. Two primitives are exposed:
//
//   - Perform blocks the caller until the job has run to completion on the
//     loop and returns its result. Used for short, latency-sensitive reads.
//   - Schedule enqueues a job and returns; the job runs in submission order.
//     Used for teardown and other fire-and-forget work.
//
// Jobs receive a Token, a confinement witness that only the loop goroutine
// can mint. Driver implementations require a valid Token on every call, which
// turns accidental off-loop access into a checkable error instead of a data
// race. Jobs must never call Perform on their own executor; the loop is a
// single thread and such a call would deadlock, exactly as a reentrant call
// into the native API would.
package runloop
