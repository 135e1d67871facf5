// Package testutil provides shared fixtures for axcore tests: context
// helpers and a fully wired run loop + simulated driver + system world.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/axsim"
	"github.com/deskwatch/axcore/runloop"
)

// TestContext returns a context that expires with the test.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// World is an assembled introspection stack over the simulated driver.
type World struct {
	Loop *runloop.Executor
	Sim  *axsim.Driver
	Sys  *ax.System
}

// NewWorld assembles a run loop, simulated driver, and system with default
// limits, torn down with the test.
func NewWorld(t *testing.T) *World {
	return NewWorldLimits(t, ax.DefaultLimits())
}

// NewWorldLimits is NewWorld with explicit element-layer limits.
func NewWorldLimits(t *testing.T, limits ax.Limits) *World {
	t.Helper()
	logger := zaptest.NewLogger(t)
	loop := runloop.New(runloop.DefaultConfig(), logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = loop.Close(ctx)
	})
	sim := axsim.New()
	sys, err := ax.NewSystem(sim, loop, limits, logger)
	require.NoError(t, err)
	return &World{Loop: loop, Sim: sim, Sys: sys}
}

// Root scripts an application root in the simulated world and returns it
// bound as an Element.
func (w *World) Root(t *testing.T, pid int32, title string) (ax.Element, *axsim.Node) {
	t.Helper()
	node := w.Sim.Root(pid, title)
	el, err := w.Sys.ApplicationElement(TestContext(t), pid)
	require.NoError(t, err)
	require.True(t, el.Valid())
	return el, node
}

// Fire delivers a notification on the loop, the only place the native API
// fires callbacks, and returns the number of callbacks invoked.
func (w *World) Fire(t *testing.T, target *axsim.Node, notification string, payload map[string]any) int {
	t.Helper()
	var delivered int
	err := w.Loop.Do(TestContext(t), func(tok runloop.Token) error {
		delivered = w.Sim.Fire(tok, target, notification, payload)
		return nil
	})
	require.NoError(t, err)
	return delivered
}

// Eventually polls cond until it holds or the deadline passes.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
