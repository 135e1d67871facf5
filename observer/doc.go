// Package observer converts the native API's push-style change callbacks
// into pull-style asynchronous event sequences.
//
// Every Observer owns one native subscription handle, one entry in the
// identity Registry, and one Event channel. Native callbacks fire on the
// run loop, look up the write-end by identity token, and push; a missing
// token means the Observer has already begun teardown, and the event is
// dropped and counted, not treated as an error. The Registry is the only state
// in the core shared between the run loop and arbitrary caller goroutines,
// and the only place that takes a mutex.
//
// Teardown is deferred to keep native handles safe against in-flight
// callbacks: Close removes and finishes the write-end synchronously, then
// schedules native invalidation as a job on the run loop, holding the
// handle until that job has run.
package observer
