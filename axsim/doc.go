// Package axsim is an in-memory implementation of the ax.Driver protocol: a
// scriptable UI tree standing in for a real target process. It reproduces
// the native API's contract faithfully enough to exercise every path above
// the driver boundary: it demands a valid run loop token on every call,
// reports staleness after invalidation, simulates unresponsive targets and
// a disabled API, and delivers notifications through observer callbacks on
// the loop.
//
// Trees are built from the test side with the Node builder methods, which
// are safe to call from any goroutine. Notification delivery is the one
// operation that must happen on the loop, because that is where the native
// API would fire callbacks:
//
//	loop.Do(ctx, func(tok runloop.Token) error {
//		sim.Fire(tok, node, ax.NotificationValueChanged, nil)
//		return nil
//	})
package axsim
