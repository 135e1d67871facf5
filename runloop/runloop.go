package runloop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when a job is submitted to a closed executor.
	ErrClosed = errors.New("run loop is closed")

	// ErrNotConfined is returned by Confined when a token is used outside
	// the job invocation that minted it.
	ErrNotConfined = errors.New("call is not confined to the run loop")
)

// Token proves that the holder is executing inside a job on the run loop.
// Tokens are minted per job invocation and expire when the job returns; a
// token smuggled out of its job fails Confined. The zero Token is invalid.
type Token struct {
	ex  *Executor
	gen uint64
}

// Valid reports whether the token belongs to the job currently executing on
// its run loop. A false result means a native call is being attempted off
// the loop.
func (t Token) Valid() bool {
	return t.ex != nil && t.gen != 0 && t.ex.current.Load() == t.gen
}

// Confined returns nil when the token is valid and ErrNotConfined otherwise.
func Confined(t Token) error {
	if !t.Valid() {
		return ErrNotConfined
	}
	return nil
}

// Config configures an Executor.
type Config struct {
	// QueueSize bounds the number of jobs waiting for the loop.
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{QueueSize: 256}
}

// Executor owns the dedicated run loop goroutine. The goroutine is locked to
// its OS thread and stays parked on the job queue for the executor's whole
// lifetime, mirroring a native event loop held open by a permanent idle
// source. All state other than the stats counters is confined to the loop.
type Executor struct {
	jobs chan job
	stop chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	current atomic.Uint64 // generation of the executing job, 0 when idle
	nextGen atomic.Uint64

	logger *zap.Logger

	// Stats
	performed atomic.Uint64
	scheduled atomic.Uint64
	panicked  atomic.Uint64
	busyNs    atomic.Int64
}

type job struct {
	fn func(Token)
}

// New creates an executor and starts its loop goroutine.
func New(cfg Config, logger *zap.Logger) *Executor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ex := &Executor{
		jobs:   make(chan job, cfg.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger.With(zap.String("component", "runloop")),
	}
	go ex.run()
	return ex
}

func (ex *Executor) run() {
	// The native API keys its sessions to the calling OS thread, so the loop
	// must not migrate between threads.
	runtime.LockOSThread()
	defer close(ex.done)

	for {
		select {
		case j := <-ex.jobs:
			ex.invoke(j)
		case <-ex.stop:
			// Jobs accepted before Close still run; late teardown work is
			// drained, not dropped.
			for {
				select {
				case j := <-ex.jobs:
					ex.invoke(j)
				default:
					return
				}
			}
		}
	}
}

func (ex *Executor) invoke(j job) {
	gen := ex.nextGen.Add(1)
	ex.current.Store(gen)
	start := time.Now()
	defer func() {
		ex.current.Store(0)
		ex.busyNs.Add(time.Since(start).Nanoseconds())
		if r := recover(); r != nil {
			ex.panicked.Add(1)
			ex.logger.Error("run loop job panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	j.fn(Token{ex: ex, gen: gen})
}

// enqueue places j on the queue unless the executor is closed. Holding the
// read lock across the send pairs with Close taking the write lock before
// signaling the loop, so a job accepted here is always drained.
func (ex *Executor) enqueue(ctx context.Context, j job) error {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	if ex.closed {
		return ErrClosed
	}
	if ctx == nil {
		ex.jobs <- j
		return nil
	}
	select {
	case ex.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Perform runs fn on the loop and blocks until it completes, returning its
// result. The context governs the enqueue and the wait: once the job is
// accepted it always runs, and if ctx expires first the eventual result is
// discarded.
func Perform[T any](ctx context.Context, ex *Executor, fn func(Token) (T, error)) (T, error) {
	var zero T

	type outcome struct {
		val T
		err error
	}
	resCh := make(chan outcome, 1)

	j := job{fn: func(tok Token) {
		defer func() {
			if r := recover(); r != nil {
				resCh <- outcome{err: fmt.Errorf("run loop job panicked: %v", r)}
			}
		}()
		val, err := fn(tok)
		resCh <- outcome{val: val, err: err}
	}}

	if err := ex.enqueue(ctx, j); err != nil {
		return zero, err
	}
	ex.performed.Add(1)

	select {
	case res := <-resCh:
		return res.val, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Do runs fn on the loop and blocks until it completes. It is Perform for
// jobs with no result.
func (ex *Executor) Do(ctx context.Context, fn func(Token) error) error {
	_, err := Perform(ctx, ex, func(tok Token) (struct{}, error) {
		return struct{}{}, fn(tok)
	})
	return err
}

// Schedule enqueues fn to run on the loop and returns without waiting for
// it. Submission order is execution order. When the queue is full, Schedule
// blocks until space frees up rather than dropping the job: scheduled work
// includes handle teardown, which must not be lost.
func (ex *Executor) Schedule(fn func(Token)) error {
	if err := ex.enqueue(nil, job{fn: fn}); err != nil {
		return err
	}
	ex.scheduled.Add(1)
	return nil
}

// Close stops accepting jobs, lets already-accepted jobs finish, and waits
// for the loop goroutine to exit or ctx to expire. Close is idempotent.
func (ex *Executor) Close(ctx context.Context) error {
	ex.mu.Lock()
	already := ex.closed
	ex.closed = true
	ex.mu.Unlock()

	if !already {
		close(ex.stop)
	}
	select {
	case <-ex.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth returns the number of jobs waiting for the loop.
func (ex *Executor) QueueDepth() int {
	return len(ex.jobs)
}

// Stats is a point-in-time snapshot of executor counters.
type Stats struct {
	Performed  uint64        `json:"performed"`
	Scheduled  uint64        `json:"scheduled"`
	Panicked   uint64        `json:"panicked"`
	QueueDepth int           `json:"queue_depth"`
	Busy       time.Duration `json:"busy"`
}

// Stats returns a snapshot of executor counters.
func (ex *Executor) Stats() Stats {
	return Stats{
		Performed:  ex.performed.Load(),
		Scheduled:  ex.scheduled.Load(),
		Panicked:   ex.panicked.Load(),
		QueueDepth: ex.QueueDepth(),
		Busy:       time.Duration(ex.busyNs.Load()),
	}
}
