// =============================================================================
// Observer Lifecycle
// =============================================================================
// An Observer is the pull-style face of one native notification
// subscription. Construction and every subscription change run as jobs on
// the dedicated run loop; consumption happens on whatever goroutine ranges
// over Events(). The two sides meet only in the identity Registry.
// =============================================================================

package observer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/runloop"
)

// ErrClosed is returned by operations on an observer after Close.
var ErrClosed = errors.New("observer: closed")

const (
	// DefaultBufferSize is the event channel capacity when Config leaves
	// BufferSize zero.
	DefaultBufferSize = 128

	// dropWarnInterval rate-limits the buffer-full warning so a stalled
	// consumer does not flood the log.
	dropWarnInterval = 5 * time.Second
)

// Config tunes a single Observer.
type Config struct {
	// BufferSize caps how many events may wait to be consumed. When the
	// buffer is full the newest event is dropped and counted; delivery
	// never blocks the run loop.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
}

// DefaultConfig returns the default observer configuration.
func DefaultConfig() Config {
	return Config{BufferSize: DefaultBufferSize}
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	return c
}

// Process-wide delivery accounting, aggregated across all observers.
var (
	totalDelivered atomic.Uint64
	totalDropped   atomic.Uint64
)

// Observer owns one native notification subscription and one Event
// sequence. It is safe for concurrent use.
type Observer struct {
	sys      *ax.System
	element  ax.Element
	registry *Registry
	logger   *zap.Logger

	token  uint64
	handle ax.ObserverHandle
	events chan Event

	closed   atomic.Bool
	warnEach *rate.Limiter

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// New creates an observer bound to the element's owning process. The
// native subscription is allocated and attached on the run loop before New
// returns; no notifications are delivered until Subscribe.
func New(ctx context.Context, el ax.Element, cfg Config, logger *zap.Logger) (*Observer, error) {
	if !el.Valid() {
		return nil, ax.NewError(ax.CodeInvalidElement, "observer target is detached").
			WithOp("observer_create")
	}
	cfg = cfg.withDefaults()
	sys := el.System()
	if logger == nil {
		logger = sys.Logger()
	}

	o := &Observer{
		sys:      sys,
		element:  el,
		registry: defaultRegistry,
		events:   make(chan Event, cfg.BufferSize),
		warnEach: rate.NewLimiter(rate.Every(dropWarnInterval), 1),
	}
	o.token = o.registry.Register(o.events)
	o.logger = logger.With(
		zap.String("component", "observer"),
		zap.Uint64("observer", o.token),
		zap.Int32("pid", el.PID()),
	)

	handle, err := runloop.Perform(ctx, sys.Loop(), func(tok runloop.Token) (ax.ObserverHandle, error) {
		drv := sys.Driver()
		h, st := drv.CreateObserver(tok, el.PID(), o.callback())
		if st != ax.StatusSuccess {
			return nil, ax.StatusError(st, "observer_create").WithPID(el.PID())
		}
		if st := drv.AttachObserver(tok, h); st != ax.StatusSuccess {
			drv.InvalidateObserver(tok, h)
			return nil, ax.StatusError(st, "observer_attach").WithPID(el.PID())
		}
		return h, nil
	})
	if err != nil {
		o.registry.Remove(o.token)
		if ax.IsInternal(err) {
			o.logger.Error("unexpected native status creating observer", zap.Error(err))
		}
		return nil, err
	}
	o.handle = handle
	o.logger.Debug("observer created")
	return o, nil
}

// callback builds the closure handed to the driver. It runs on the run
// loop, so it must return quickly and must never block: delivery goes
// through the registry, which only ever attempts a non-blocking send.
func (o *Observer) callback() ax.ObserverCallback {
	return func(_ runloop.Token, subject ax.Handle, notification string, payload map[string]any) {
		ev := Event{
			Notification: notification,
			Subject:      o.sys.Element(subject, o.element.PID()),
			Payload:      convertPayload(payload),
			Time:         time.Now(),
		}
		delivered, found := o.registry.Deliver(o.token, ev)
		switch {
		case !found:
			// Teardown won the race. The registry counted the miss;
			// nothing else to do.
		case delivered:
			o.delivered.Add(1)
			totalDelivered.Add(1)
		default:
			o.dropped.Add(1)
			totalDropped.Add(1)
			if o.warnEach.Allow() {
				o.logger.Warn("event buffer full, dropping newest",
					zap.String("notification", notification),
					zap.Uint64("dropped", o.dropped.Load()),
				)
			}
		}
	}
}

// Subscribe adds the named notifications to the subscription. A
// notification that is already subscribed counts as success. The first
// failure aborts the batch, leaving earlier names subscribed.
func (o *Observer) Subscribe(ctx context.Context, notifications ...string) error {
	return o.change(ctx, "observer_subscribe", notifications, true)
}

// Unsubscribe removes the named notifications from the subscription. A
// notification that was never subscribed counts as success.
func (o *Observer) Unsubscribe(ctx context.Context, notifications ...string) error {
	return o.change(ctx, "observer_unsubscribe", notifications, false)
}

func (o *Observer) change(ctx context.Context, op string, notifications []string, add bool) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if len(notifications) == 0 {
		return nil
	}
	target := o.element.Ref().Handle
	return o.sys.Loop().Do(ctx, func(tok runloop.Token) error {
		if o.closed.Load() {
			return ErrClosed
		}
		drv := o.sys.Driver()
		for _, name := range notifications {
			var st ax.Status
			if add {
				st = drv.AddNotification(tok, o.handle, target, name)
			} else {
				st = drv.RemoveNotification(tok, o.handle, target, name)
			}
			switch st {
			case ax.StatusSuccess:
				continue
			case ax.StatusNotificationAlreadyRegistered, ax.StatusNotificationNotRegistered:
				// Redundant transitions land in the requested state; the
				// native API reports them as errors, callers should not
				// have to.
				continue
			}
			err := ax.StatusError(st, op).WithAttribute(name).WithPID(o.element.PID())
			if err.Code == ax.CodeInternal {
				o.logger.Error("unexpected native status changing subscription",
					zap.String("op", op),
					zap.String("notification", name),
					zap.String("status", st.String()),
				)
			}
			return err
		}
		return nil
	})
}

// Events returns the observer's event sequence. The channel is closed by
// Close; events that arrive with the buffer full are dropped, newest
// first, and counted in Stats.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// Element returns the element this observer is bound to.
func (o *Observer) Element() ax.Element {
	return o.element
}

// Token returns the observer's identity token, the key under which native
// callbacks find this observer's event sequence.
func (o *Observer) Token() uint64 {
	return o.token
}

// Closed reports whether Close has been called.
func (o *Observer) Closed() bool {
	return o.closed.Load()
}

// Stats is a snapshot of one observer's delivery counters.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns a snapshot of delivery counters.
func (o *Observer) Stats() Stats {
	return Stats{
		Delivered: o.delivered.Load(),
		Dropped:   o.dropped.Load(),
	}
}

// Close tears the observer down. The event sequence is finished
// synchronously: after Close returns, no further event is delivered and
// Events() is closed. Native invalidation is deferred to a job on the run
// loop, and the native handle stays referenced until that job has run, so
// an in-flight callback can never touch a freed handle. Close is
// idempotent.
func (o *Observer) Close() error {
	if o.closed.Swap(true) {
		return nil
	}

	var err error
	if !o.registry.Remove(o.token) {
		// Registered at construction, removed exactly once here: a missing
		// entry means the bridge state is corrupt.
		err = ax.NewError(ax.CodeInternal, "registry entry missing at teardown").
			WithOp("observer_close")
		o.logger.Error("registry entry missing at teardown")
	}
	close(o.events)

	handle := o.handle
	if schedErr := o.sys.Loop().Schedule(func(tok runloop.Token) {
		if st := o.sys.Driver().InvalidateObserver(tok, handle); st != ax.StatusSuccess {
			o.logger.Warn("observer invalidation returned non-success",
				zap.String("status", st.String()))
			return
		}
		o.logger.Debug("observer invalidated")
	}); schedErr != nil {
		// The run loop is already gone; the handle dies with the session.
		o.logger.Warn("run loop closed before observer teardown", zap.Error(schedErr))
	}
	return err
}

// BridgeStats aggregates delivery accounting across every observer in the
// process.
type BridgeStats struct {
	ActiveObservers int    `json:"active_observers"`
	Delivered       uint64 `json:"delivered"`
	Dropped         uint64 `json:"dropped"`
	Missed          uint64 `json:"missed"`
}

// GlobalStats returns a snapshot of process-wide bridge counters. Missed
// counts deliveries whose token was already removed from the registry.
func GlobalStats() BridgeStats {
	return BridgeStats{
		ActiveObservers: defaultRegistry.Len(),
		Delivered:       totalDelivered.Load(),
		Dropped:         totalDropped.Load(),
		Missed:          defaultRegistry.Missed(),
	}
}
