package walker

import (
	"context"

	"github.com/deskwatch/axcore/ax"
)

const (
	// DefaultMaxDepth bounds how far below the root a walk expands.
	DefaultMaxDepth = 100

	// DefaultVisitBudget bounds how many frames one walk may yield.
	DefaultVisitBudget = 25000

	// progressEvery is the yield interval between progress log lines.
	progressEvery = 1000
)

// Source selects which relation a walk expands.
type Source int

const (
	// SourceChildren walks the ordinary child relation.
	SourceChildren Source = iota

	// SourceContents walks the contents relation, which web areas and
	// scroll containers use to expose their logical tree.
	SourceContents
)

// Frame is one visited element together with the child-index path that
// reaches it from the root. The root's path is empty.
type Frame struct {
	Element ax.Element
	Path    []int
}

// Depth is the number of edges between the frame and the root.
func (f Frame) Depth() int {
	return len(f.Path)
}

// Predicate inspects a frame during a walk. Predicates may read attributes
// through the element, so they take a context; returning an error ends the
// walk with that error.
type Predicate func(ctx context.Context, f Frame) (bool, error)

// RoleIs returns a predicate that holds when the frame's role is one of
// roles. Elements whose role cannot be read match nothing.
func RoleIs(roles ...string) Predicate {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return func(ctx context.Context, f Frame) (bool, error) {
		role, err := f.Element.Role(ctx)
		if err != nil || role == "" {
			return false, nil
		}
		_, ok := set[role]
		return ok, nil
	}
}

// Options tunes one walk. Start from DefaultOptions; the zero value is a
// root-only walk.
type Options struct {
	// MaxDepth bounds expansion depth. Zero yields the root frame and
	// nothing else, matching the depth convention of the diagnostic
	// dump.
	MaxDepth int

	// VisitBudget bounds the number of yielded frames. Zero means
	// DefaultVisitBudget.
	VisitBudget int

	// Source selects the expanded relation.
	Source Source

	// Terminate, when it holds, yields the current frame and then ends
	// the walk.
	Terminate Predicate

	// Exclude, when it holds, discards the current frame and its whole
	// subtree.
	Exclude Predicate

	// SkipChildren, when it holds, yields the current frame without
	// expanding it.
	SkipChildren Predicate
}

// DefaultOptions walks children to the default depth and budget with no
// predicates.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    DefaultMaxDepth,
		VisitBudget: DefaultVisitBudget,
	}
}

func (o Options) normalized() Options {
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.VisitBudget <= 0 {
		o.VisitBudget = DefaultVisitBudget
	}
	return o
}
