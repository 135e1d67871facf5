package axcore_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskwatch/axcore"
	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/config"
	"github.com/deskwatch/axcore/runloop"
	"github.com/deskwatch/axcore/walker"
)

func quietConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = false
	return cfg
}

func newSession(t *testing.T, opts ...axcore.Option) *axcore.Session {
	t.Helper()
	opts = append([]axcore.Option{
		axcore.WithSimulator(),
		axcore.WithConfig(quietConfig()),
		axcore.WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	s, err := axcore.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func TestNewRequiresDriver(t *testing.T) {
	s, err := axcore.New()
	assert.ErrorIs(t, err, axcore.ErrDriverRequired)
	assert.Nil(t, s)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Loop.QueueSize = -1

	s, err := axcore.New(axcore.WithSimulator(), axcore.WithConfig(cfg))
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestSessionLifecycle(t *testing.T) {
	s := newSession(t)
	require.NotNil(t, s.Simulator())
	s.Simulator().Root(401, "App")

	ctx := context.Background()
	el, err := s.Application(ctx, 401)
	require.NoError(t, err)
	require.True(t, el.Valid())

	title, err := el.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "App", title)

	require.NoError(t, s.Close(ctx))
	assert.NoError(t, s.Close(ctx), "second close is a no-op")
}

func TestSessionObserveDeliversEvents(t *testing.T) {
	s := newSession(t)
	root := s.Simulator().Root(402, "App")

	ctx := context.Background()
	el, err := s.Application(ctx, 402)
	require.NoError(t, err)

	obs, err := s.Observe(ctx, el, ax.NotificationTitleChanged)
	require.NoError(t, err)

	err = s.Loop().Do(ctx, func(tok runloop.Token) error {
		s.Simulator().Fire(tok, root, ax.NotificationTitleChanged, nil)
		return nil
	})
	require.NoError(t, err)

	select {
	case ev := <-obs.Events():
		assert.Equal(t, ax.NotificationTitleChanged, ev.Notification)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSessionCloseClosesTrackedObservers(t *testing.T) {
	s := newSession(t)
	s.Simulator().Root(403, "App")

	ctx := context.Background()
	el, err := s.Application(ctx, 403)
	require.NoError(t, err)

	obs, err := s.Observe(ctx, el)
	require.NoError(t, err)
	require.False(t, obs.Closed())

	require.NoError(t, s.Close(ctx))
	assert.True(t, obs.Closed())

	_, open := <-obs.Events()
	assert.False(t, open, "event sequence finishes with the session")
}

func TestSessionWalkUsesConfiguredBounds(t *testing.T) {
	cfg := quietConfig()
	cfg.Walker.MaxDepth = 1

	s := newSession(t, axcore.WithConfig(cfg))
	root := s.Simulator().Root(404, "App")
	win := root.AddChild(ax.RoleWindow, "Main")
	win.AddChild(ax.RoleButton, "OK")

	ctx := context.Background()
	el, err := s.Application(ctx, 404)
	require.NoError(t, err)

	w := s.Walk(ctx, el)
	var titles []string
	for f := range w.Frames() {
		title, err := f.Element.Title(ctx)
		require.NoError(t, err)
		titles = append(titles, title)
	}
	require.NoError(t, w.Err())

	// Depth 1 reaches the window but not the button under it.
	assert.Equal(t, []string{"App", "Main"}, titles)
}

func TestSessionWalkWithExplicitOptions(t *testing.T) {
	s := newSession(t)
	root := s.Simulator().Root(405, "App")
	root.AddChild(ax.RoleWindow, "Main")

	ctx := context.Background()
	el, err := s.Application(ctx, 405)
	require.NoError(t, err)

	w := s.WalkWith(ctx, el, walker.Options{})
	var count int
	for range w.Frames() {
		count++
	}
	require.NoError(t, w.Err())
	assert.Equal(t, 1, count, "zero MaxDepth walks the root only")
}

func TestSessionDump(t *testing.T) {
	s := newSession(t)
	root := s.Simulator().Root(406, "App")
	root.AddChild(ax.RoleWindow, "Main")

	ctx := context.Background()
	el, err := s.Application(ctx, 406)
	require.NoError(t, err)

	d, err := s.Dump(ctx, el, ax.DumpOptions{Depth: 1})
	require.NoError(t, err)
	assert.Contains(t, d.String(), "Main")
}

func TestSessionMetricsRegistration(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = true
	reg := prometheus.NewRegistry()

	s, err := axcore.New(
		axcore.WithSimulator(),
		axcore.WithConfig(cfg),
		axcore.WithLogger(zaptest.NewLogger(t)),
		axcore.WithMetricsRegisterer(reg),
	)
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs, "collector registered at construction")

	ctx := context.Background()
	require.NoError(t, s.Close(ctx))

	mfs, err = reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs, "collector unregistered at close")
}
