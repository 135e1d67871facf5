// Package axcore provides a safe concurrent façade over a single-threaded
// native accessibility API.
//
// Usage:
//
//	import "github.com/deskwatch/axcore"
//
//	s, err := axcore.New(axcore.WithDriver(myDriver))
//	s, err := axcore.New(axcore.WithSimulator(), axcore.WithLogger(logger))
//
//	app, err := s.Application(ctx, pid)
//	obs, err := s.Observe(ctx, app, ax.NotificationWindowCreated)
//	for frame := range s.Walk(ctx, app).Frames() { ... }
//
// A Session owns the dedicated run loop, the element system, and the
// observability plumbing. Close releases them in order: observers first,
// then the loop, then telemetry and metrics.
package axcore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/axsim"
	"github.com/deskwatch/axcore/config"
	"github.com/deskwatch/axcore/internal/metrics"
	"github.com/deskwatch/axcore/internal/telemetry"
	"github.com/deskwatch/axcore/observer"
	"github.com/deskwatch/axcore/runloop"
	"github.com/deskwatch/axcore/walker"
)

// ErrDriverRequired is returned by New when no driver was supplied.
var ErrDriverRequired = errors.New("driver is required: use WithDriver or WithSimulator")

// Option configures the Session created by New.
type Option func(*options)

type options struct {
	drv      ax.Driver
	sim      *axsim.Driver
	cfg      *config.Config
	cfgPath  string
	logger   *zap.Logger
	registry prometheus.Registerer
}

// WithDriver sets the native driver the session's run loop calls into.
func WithDriver(drv ax.Driver) Option {
	return func(o *options) { o.drv = drv }
}

// WithSimulator installs a fresh in-memory simulated driver. The simulator
// is reachable afterwards via [Session.Simulator] for scripting trees and
// firing notifications.
func WithSimulator() Option {
	return func(o *options) {
		o.sim = axsim.New()
		o.drv = o.sim
	}
}

// WithConfig sets a pre-built configuration. Overrides WithConfigFile.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from the YAML file at path, layered
// under AXCORE_* environment overrides. A missing file is not an error.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

// WithLogger sets a custom zap logger. Defaults to a logger built from the
// resolved Log configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetricsRegisterer sets the Prometheus registry the session's collector
// registers with. Defaults to prometheus.DefaultRegisterer.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// Session binds a driver, a run loop, and the element system into one
// handle. All methods are safe for concurrent use.
type Session struct {
	cfg    *config.Config
	logger *zap.Logger
	loop   *runloop.Executor
	sys    *ax.System
	sim    *axsim.Driver
	tel    *telemetry.Providers

	collector *metrics.Collector
	registry  prometheus.Registerer

	mu        sync.Mutex
	observers map[*observer.Observer]struct{}
	closed    bool
}

// New creates a Session. A driver must be supplied via [WithDriver] or
// [WithSimulator]; everything else has working defaults.
func New(opts ...Option) (*Session, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.drv == nil {
		return nil, ErrDriverRequired
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		cfg, err = config.NewLoader().WithConfigPath(o.cfgPath).Load()
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = config.BuildLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
	}
	logger = logger.With(zap.String("session", uuid.NewString()))

	loop := runloop.New(runloop.Config{QueueSize: cfg.Loop.QueueSize}, logger)

	sys, err := ax.NewSystem(o.drv, loop, ax.Limits{
		MaxChildren:      cfg.Element.MaxChildren,
		MaxValueChars:    cfg.Element.MaxValueChars,
		MessagingTimeout: cfg.Element.MessagingTimeout,
	}, logger)
	if err != nil {
		closeLoop(loop, cfg, logger)
		return nil, err
	}

	tel, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		closeLoop(loop, cfg, logger)
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		logger:    logger,
		loop:      loop,
		sys:       sys,
		sim:       o.sim,
		tel:       tel,
		observers: make(map[*observer.Observer]struct{}),
	}

	if cfg.Metrics.Enabled {
		reg := o.registry
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		col := metrics.NewCollector(cfg.Metrics.Namespace, metrics.Sources{
			Loop:   loop.Stats,
			System: sys.Stats,
		}, logger)
		if err := col.Register(reg); err != nil {
			closeLoop(loop, cfg, logger)
			shutdownTelemetry(tel, cfg, logger)
			return nil, err
		}
		s.collector = col
		s.registry = reg
	}

	logger.Info("session started",
		zap.Int("queue_size", cfg.Loop.QueueSize),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	return s, nil
}

// System returns the element system.
func (s *Session) System() *ax.System { return s.sys }

// Loop returns the run loop executor.
func (s *Session) Loop() *runloop.Executor { return s.loop }

// Config returns the resolved configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Simulator returns the simulated driver installed by [WithSimulator], or
// nil when the session runs on a real driver.
func (s *Session) Simulator() *axsim.Driver { return s.sim }

// Application returns the root element of the process pid. An application
// with no introspectable tree resolves as a zero Element and a nil error.
func (s *Session) Application(ctx context.Context, pid int32) (ax.Element, error) {
	return s.sys.ApplicationElement(ctx, pid)
}

// SystemWide returns the system-wide root element.
func (s *Session) SystemWide(ctx context.Context) (ax.Element, error) {
	return s.sys.SystemWideElement(ctx)
}

// Observe creates an observer bound to el using the session's buffer
// configuration and subscribes it to the given notifications, if any. The
// observer is closed by [Session.Close] unless the caller closes it first.
func (s *Session) Observe(ctx context.Context, el ax.Element, notifications ...string) (*observer.Observer, error) {
	obs, err := observer.New(ctx, el, observer.Config{
		BufferSize: s.cfg.Observer.BufferSize,
	}, s.logger)
	if err != nil {
		return nil, err
	}
	if len(notifications) > 0 {
		if err := obs.Subscribe(ctx, notifications...); err != nil {
			_ = obs.Close()
			return nil, err
		}
	}
	s.track(obs)
	return obs, nil
}

// track remembers obs for teardown, dropping entries the caller has
// already closed so the set stays bounded by the number of live observers.
func (s *Session) track(obs *observer.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for o := range s.observers {
		if o.Closed() {
			delete(s.observers, o)
		}
	}
	s.observers[obs] = struct{}{}
}

// Walk starts a traversal of root bounded by the session's walker
// configuration. See [walker.Walk] for the consumption contract.
func (s *Session) Walk(ctx context.Context, root ax.Element) *walker.Walker {
	return walker.Walk(ctx, root, walker.Options{
		MaxDepth:    s.cfg.Walker.MaxDepth,
		VisitBudget: s.cfg.Walker.VisitBudget,
	})
}

// WalkWith starts a traversal of root with explicit options. The options
// are taken as given: a zero MaxDepth walks the root only.
func (s *Session) WalkWith(ctx context.Context, root ax.Element, opts walker.Options) *walker.Walker {
	return walker.Walk(ctx, root, opts)
}

// Dump renders a bounded diagnostic snapshot of the subtree under el.
func (s *Session) Dump(ctx context.Context, el ax.Element, opts ax.DumpOptions) (*ax.Dump, error) {
	return ax.DumpElement(ctx, el, opts)
}

// Close tears the session down: open observers first, then the run loop
// within the configured shutdown timeout, then telemetry, then the metrics
// registration. Close is idempotent; later calls return nil.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	obs := make([]*observer.Observer, 0, len(s.observers))
	for o := range s.observers {
		obs = append(obs, o)
	}
	s.observers = nil
	s.mu.Unlock()

	var errs []error
	for _, o := range obs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	loopCtx := ctx
	if _, ok := ctx.Deadline(); !ok && s.cfg.Loop.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		loopCtx, cancel = context.WithTimeout(ctx, s.cfg.Loop.ShutdownTimeout)
		defer cancel()
	}
	if err := s.loop.Close(loopCtx); err != nil {
		errs = append(errs, err)
	}

	if err := s.tel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if s.collector != nil {
		s.collector.Unregister(s.registry)
	}

	s.logger.Info("session closed")
	return errors.Join(errs...)
}

func closeLoop(loop *runloop.Executor, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Loop.ShutdownTimeout)
	defer cancel()
	if err := loop.Close(ctx); err != nil {
		logger.Warn("run loop close during failed startup", zap.Error(err))
	}
}

func shutdownTelemetry(tel *telemetry.Providers, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Loop.ShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown during failed startup", zap.Error(err))
	}
}
