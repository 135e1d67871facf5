// =============================================================================
// Bounded Traversal Engine
// =============================================================================
// A walk is an explicit-stack pre-order traversal with four independent
// bounds: the caller's context, a maximum expansion depth, a visit budget,
// and the per-element read limits already enforced below. No recursion:
// native trees can cycle or claim absurd sizes, and the stack must survive
// both.
// =============================================================================

package walker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/deskwatch/axcore/ax"
)

// Stats is a point-in-time snapshot of one walk.
type Stats struct {
	WalkID      string        `json:"walk_id"`
	Visited     uint64        `json:"visited"`
	Deepest     int           `json:"deepest"`
	ChildErrors uint64        `json:"child_errors"`
	Truncated   bool          `json:"truncated"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Process-wide traversal accounting, aggregated across all walks.
var (
	totalWalks     atomic.Uint64
	totalFrames    atomic.Uint64
	totalTruncated atomic.Uint64
)

// GlobalStats aggregates traversal counters across every walk in the
// process.
type GlobalStatsSnapshot struct {
	Walks     uint64 `json:"walks"`
	Frames    uint64 `json:"frames"`
	Truncated uint64 `json:"truncated"`
}

// GlobalStats returns a snapshot of process-wide traversal counters.
func GlobalStats() GlobalStatsSnapshot {
	return GlobalStatsSnapshot{
		Walks:     totalWalks.Load(),
		Frames:    totalFrames.Load(),
		Truncated: totalTruncated.Load(),
	}
}

// Walker is one in-flight traversal. Create it with Walk, range over
// Frames, then check Err.
type Walker struct {
	root   ax.Element
	opts   Options
	logger *zap.Logger
	id     string

	frames chan Frame
	err    error

	visited   atomic.Uint64
	childErrs atomic.Uint64
	deepest   atomic.Int64
	truncated atomic.Bool
	elapsed   atomic.Int64
}

// Walk starts a traversal rooted at root and returns immediately. The
// walk runs on its own goroutine and parks on Frames sends, so an
// abandoned consumer must cancel ctx to release it.
func Walk(ctx context.Context, root ax.Element, opts Options) *Walker {
	w := &Walker{
		root:   root,
		opts:   opts.normalized(),
		id:     uuid.NewString(),
		frames: make(chan Frame),
	}
	if root.Valid() {
		w.logger = root.System().Logger().With(
			zap.String("component", "walker"),
			zap.String("walk", w.id),
			zap.Int32("pid", root.PID()),
		)
	} else {
		w.logger = zap.NewNop()
	}
	totalWalks.Add(1)
	go w.run(ctx)
	return w
}

// Collect runs a walk to completion and returns every yielded frame.
func Collect(ctx context.Context, root ax.Element, opts Options) ([]Frame, error) {
	w := Walk(ctx, root, opts)
	var frames []Frame
	for f := range w.Frames() {
		frames = append(frames, f)
	}
	return frames, w.Err()
}

// Frames returns the stream of visited frames in pre-order. The channel
// is closed when the walk ends for any reason.
func (w *Walker) Frames() <-chan Frame {
	return w.frames
}

// Err reports why the walk ended. It is meaningful once Frames is closed:
// nil after natural or budget-bounded completion, the context's error
// after cancellation, or the first predicate error.
func (w *Walker) Err() error {
	return w.err
}

// ID returns the walk's correlation id, the same value carried by its log
// lines and trace span.
func (w *Walker) ID() string {
	return w.id
}

// Stats returns a snapshot of the walk's counters. It may be called while
// the walk is still running.
func (w *Walker) Stats() Stats {
	return Stats{
		WalkID:      w.id,
		Visited:     w.visited.Load(),
		Deepest:     int(w.deepest.Load()),
		ChildErrors: w.childErrs.Load(),
		Truncated:   w.truncated.Load(),
		Elapsed:     time.Duration(w.elapsed.Load()),
	}
}

func (w *Walker) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		w.elapsed.Store(int64(time.Since(start)))
		close(w.frames)
	}()

	ctx, span := otel.Tracer("axcore/walker").Start(ctx, "walker.walk")
	span.SetAttributes(
		attribute.String("walk.id", w.id),
		attribute.Int("walk.max_depth", w.opts.MaxDepth),
		attribute.Int("walk.visit_budget", w.opts.VisitBudget),
	)
	defer func() {
		span.SetAttributes(
			attribute.Int64("walk.visited", int64(w.visited.Load())),
			attribute.Bool("walk.truncated", w.truncated.Load()),
		)
		if w.err != nil {
			span.SetAttributes(attribute.String("error", w.err.Error()))
		}
		span.End()
	}()

	if !w.root.Valid() {
		w.err = ax.NewError(ax.CodeInvalidElement, "walk root is detached").WithOp("walk")
		return
	}
	span.SetAttributes(attribute.Int("walk.pid", int(w.root.PID())))

	stack := []Frame{{Element: w.root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			w.err = err
			w.logger.Debug("walk cancelled", zap.Uint64("visited", w.visited.Load()))
			return
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d := int64(f.Depth()); d > w.deepest.Load() {
			w.deepest.Store(d)
		}

		if w.opts.Terminate != nil {
			hit, err := w.opts.Terminate(ctx, f)
			if err != nil {
				w.err = err
				return
			}
			if hit {
				w.yield(ctx, f)
				w.logger.Debug("walk terminated by predicate",
					zap.Uint64("visited", w.visited.Load()),
					zap.Int("depth", f.Depth()),
				)
				return
			}
		}

		if w.opts.Exclude != nil {
			hit, err := w.opts.Exclude(ctx, f)
			if err != nil {
				w.err = err
				return
			}
			if hit {
				continue
			}
		}

		skip := false
		if w.opts.SkipChildren != nil {
			hit, err := w.opts.SkipChildren(ctx, f)
			if err != nil {
				w.err = err
				return
			}
			skip = hit
		}

		if !skip && f.Depth() < w.opts.MaxDepth {
			w.expand(ctx, f, &stack)
		}

		if !w.yield(ctx, f) {
			return
		}
		if w.visited.Load() >= uint64(w.opts.VisitBudget) {
			if len(stack) > 0 {
				w.truncated.Store(true)
				totalTruncated.Add(1)
				w.logger.Warn("visit budget reached, truncating walk",
					zap.Int("budget", w.opts.VisitBudget),
					zap.Int("remaining", len(stack)),
				)
			}
			return
		}
	}
}

// expand pushes f's children in reverse so the leftmost child pops first,
// keeping the stream in pre-order. A child fetch failure degrades to an
// unexpanded frame rather than failing the walk: trees mutate underneath
// walks all the time, and a vanished subtree is ordinary.
func (w *Walker) expand(ctx context.Context, f Frame, stack *[]Frame) {
	var kids []ax.Element
	var err error
	switch w.opts.Source {
	case SourceContents:
		kids, err = f.Element.Contents(ctx)
	default:
		kids, err = f.Element.Children(ctx)
	}
	if err != nil {
		w.childErrs.Add(1)
		w.logger.Debug("child expansion failed",
			zap.Int("depth", f.Depth()),
			zap.Error(err),
		)
		return
	}
	for i := len(kids) - 1; i >= 0; i-- {
		path := make([]int, len(f.Path)+1)
		copy(path, f.Path)
		path[len(f.Path)] = i
		*stack = append(*stack, Frame{Element: kids[i], Path: path})
	}
}

func (w *Walker) yield(ctx context.Context, f Frame) bool {
	select {
	case w.frames <- f:
	case <-ctx.Done():
		w.err = ctx.Err()
		return false
	}
	n := w.visited.Add(1)
	totalFrames.Add(1)
	if n%progressEvery == 0 {
		w.logger.Debug("walk progress",
			zap.Uint64("visited", n),
			zap.Int("depth", f.Depth()),
		)
	}
	return true
}
