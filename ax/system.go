package ax

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/deskwatch/axcore/runloop"
)

var (
	ErrDriverRequired = errors.New("driver is required")
	ErrLoopRequired   = errors.New("run loop executor is required")
)

// Limits are the resource ceilings of the element layer.
type Limits struct {
	// MaxChildren refuses materialization of child or contents collections
	// reporting more entries than this. Zero disables the ceiling.
	MaxChildren int `json:"max_children" yaml:"max_children"`

	// MaxValueChars refuses marshaling of text values longer than this.
	// Zero disables the ceiling.
	MaxValueChars int64 `json:"max_value_chars" yaml:"max_value_chars"`

	// MessagingTimeout bounds every native call against an unresponsive
	// target process. Applied to each element handle at creation.
	MessagingTimeout time.Duration `json:"messaging_timeout" yaml:"messaging_timeout"`
}

// DefaultLimits returns the default ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxChildren:      1000,
		MaxValueChars:    1_000_000,
		MessagingTimeout: 5 * time.Second,
	}
}

// System binds a Driver to the run loop executor and mints Elements. It is
// the home of the degradation policy: every native status funnels through
// it, is counted, and is resolved into absence, a boundary error, or a
// logged internal error.
type System struct {
	drv    Driver
	loop   *runloop.Executor
	limits Limits
	logger *zap.Logger

	reads       atomic.Uint64
	absences    atomic.Uint64
	boundary    atomic.Uint64
	defects     atomic.Uint64
	undecodable atomic.Uint64
	truncations atomic.Uint64
}

// NewSystem creates a System over drv, confined to loop.
func NewSystem(drv Driver, loop *runloop.Executor, limits Limits, logger *zap.Logger) (*System, error) {
	if drv == nil {
		return nil, ErrDriverRequired
	}
	if loop == nil {
		return nil, ErrLoopRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{
		drv:    drv,
		loop:   loop,
		limits: limits,
		logger: logger.With(zap.String("component", "ax")),
	}, nil
}

// Driver returns the underlying driver.
func (s *System) Driver() Driver { return s.drv }

// Loop returns the run loop executor every native call is confined to.
func (s *System) Loop() *runloop.Executor { return s.loop }

// Limits returns the configured ceilings.
func (s *System) Limits() Limits { return s.limits }

// Logger returns the system logger.
func (s *System) Logger() *zap.Logger { return s.logger }

// ApplicationElement returns the root element of the process pid, with the
// configured messaging timeout already applied. An application with no
// introspectable tree resolves as a zero Element and a nil error.
func (s *System) ApplicationElement(ctx context.Context, pid int32) (Element, error) {
	type res struct {
		h  Handle
		st Status
	}
	out, err := runloop.Perform(ctx, s.loop, func(tok runloop.Token) (res, error) {
		h, st := s.drv.ApplicationElement(tok, pid)
		if st == StatusSuccess && h != nil && s.limits.MessagingTimeout > 0 {
			s.drv.SetMessagingTimeout(tok, h, s.limits.MessagingTimeout)
		}
		return res{h: h, st: st}, nil
	})
	if err != nil {
		return Element{}, err
	}
	native, err := s.outcome("application_element", "", pid, out.h, out.st)
	if err != nil || native == nil {
		return Element{}, err
	}
	return Element{sys: s, h: out.h, pid: pid}, nil
}

// SystemWideElement returns the system-wide root element.
func (s *System) SystemWideElement(ctx context.Context) (Element, error) {
	type res struct {
		h  Handle
		st Status
	}
	out, err := runloop.Perform(ctx, s.loop, func(tok runloop.Token) (res, error) {
		h, st := s.drv.SystemWideElement(tok)
		if st == StatusSuccess && h != nil && s.limits.MessagingTimeout > 0 {
			s.drv.SetMessagingTimeout(tok, h, s.limits.MessagingTimeout)
		}
		return res{h: h, st: st}, nil
	})
	if err != nil {
		return Element{}, err
	}
	native, err := s.outcome("system_wide_element", "", 0, out.h, out.st)
	if err != nil || native == nil {
		return Element{}, err
	}
	return Element{sys: s, h: out.h, pid: 0}, nil
}

// Element binds a raw driver handle into this system. The caller vouches
// that h came from this system's driver and that pid owns it.
func (s *System) Element(h Handle, pid int32) Element {
	if h == nil {
		return Element{}
	}
	return Element{sys: s, h: h, pid: pid}
}

// outcome resolves one native call under the degradation policy. Success
// passes the carrier through; absence resolves to (nil, nil); boundary
// failures classify into *Error; anything unrecognized is counted and
// logged as an internal defect, then returned, never thrown away.
func (s *System) outcome(op, attr string, pid int32, native any, st Status) (any, error) {
	switch {
	case st == StatusSuccess:
		s.reads.Add(1)
		return native, nil
	case st.Absence():
		s.absences.Add(1)
		return nil, nil
	}
	e := StatusError(st, op).WithAttribute(attr).WithPID(pid)
	if e.Code == CodeInternal {
		s.defects.Add(1)
		s.logger.Error("unexpected native status",
			zap.String("op", op),
			zap.String("attribute", attr),
			zap.Int32("pid", pid),
			zap.String("status", st.String()),
		)
	} else {
		s.boundary.Add(1)
	}
	return nil, e
}

// Stats is a point-in-time snapshot of system counters.
type Stats struct {
	Reads          uint64 `json:"reads"`
	Absences       uint64 `json:"absences"`
	BoundaryErrors uint64 `json:"boundary_errors"`
	Defects        uint64 `json:"defects"`
	Undecodable    uint64 `json:"undecodable"`
	Truncations    uint64 `json:"truncations"`
}

// Stats returns a snapshot of system counters.
func (s *System) Stats() Stats {
	return Stats{
		Reads:          s.reads.Load(),
		Absences:       s.absences.Load(),
		BoundaryErrors: s.boundary.Load(),
		Defects:        s.defects.Load(),
		Undecodable:    s.undecodable.Load(),
		Truncations:    s.truncations.Load(),
	}
}
