package ax

import (
	"context"
	"time"
)

// Deadline is an absolute time bound for long-running operations: either
// "never" (the zero Deadline) or an expiry instant. Deadlines compose by
// taking the earliest bound and are independent of the per-call native
// messaging timeout.
type Deadline struct {
	at time.Time
}

// NoDeadline never expires.
var NoDeadline = Deadline{}

// DeadlineAt returns a deadline expiring at t. A zero t means never.
func DeadlineAt(t time.Time) Deadline {
	return Deadline{at: t}
}

// DeadlineIn returns a deadline expiring d from now. A non-positive d is
// already expired.
func DeadlineIn(d time.Duration) Deadline {
	return Deadline{at: time.Now().Add(d)}
}

// Unbounded reports whether the deadline never expires.
func (d Deadline) Unbounded() bool {
	return d.at.IsZero()
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	return !d.at.IsZero() && !time.Now().Before(d.at)
}

// Time returns the expiry instant; ok is false for an unbounded deadline.
func (d Deadline) Time() (t time.Time, ok bool) {
	return d.at, !d.at.IsZero()
}

// Remaining returns the time left before expiry; ok is false for an
// unbounded deadline. An expired deadline has zero remaining.
func (d Deadline) Remaining() (left time.Duration, ok bool) {
	if d.at.IsZero() {
		return 0, false
	}
	left = time.Until(d.at)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Earliest returns the tighter of the two deadlines.
func (d Deadline) Earliest(other Deadline) Deadline {
	switch {
	case d.at.IsZero():
		return other
	case other.at.IsZero():
		return d
	case other.at.Before(d.at):
		return other
	default:
		return d
	}
}

// Context derives a context that expires with the deadline. For an
// unbounded deadline the parent is returned with a no-op cancel.
func (d Deadline) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if d.at.IsZero() {
		return parent, func() {}
	}
	return context.WithDeadline(parent, d.at)
}
