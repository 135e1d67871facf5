package ax

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/deskwatch/axcore/runloop"
)

// Element is an opaque, copyable reference to one node of a foreign,
// externally-mutable UI tree. Nothing is cached: every read round-trips to
// the native API on the run loop. The zero Element is detached and fails
// every operation with CodeInvalidElement.
type Element struct {
	sys *System
	h   Handle
	pid int32
}

// Valid reports whether the element is attached to a system. It says
// nothing about staleness, which only the next native call can reveal.
func (el Element) Valid() bool {
	return el.sys != nil && el.h != nil
}

// PID returns the process owning the element (0 for the system-wide root).
func (el Element) PID() int32 { return el.pid }

// System returns the owning system, nil for a detached element.
func (el Element) System() *System { return el.sys }

// Ref returns the driver-level reference, for subscription plumbing.
func (el Element) Ref() Ref { return Ref{Handle: el.h} }

// Same reports whether both elements reference the same native node.
// Identity is a native question and is answered on the run loop.
func (el Element) Same(ctx context.Context, other Element) (bool, error) {
	if !el.Valid() {
		return false, detachedError("same")
	}
	if other.h == nil {
		return false, nil
	}
	out, err := el.perform(ctx, "same", func(tok runloop.Token) rawResult {
		same, st := el.sys.drv.SameElement(tok, el.h, other.h)
		return rawResult{native: same, st: st}
	})
	if err != nil {
		return false, err
	}
	native, err := el.sys.outcome("same", "", el.pid, out.native, out.st)
	if err != nil || native == nil {
		return false, err
	}
	same, _ := native.(bool)
	return same, nil
}

// ============================== Attribute reads ==============================

// AttributeValue fetches one attribute by name and decodes it. An
// unsupported attribute, a valueless attribute, and a value outside the
// closed type set all resolve as the absent Value with a nil error.
func (el Element) AttributeValue(ctx context.Context, name string) (Value, error) {
	return el.fetch(ctx, "attribute_value", name, func(tok runloop.Token) (any, Status) {
		return el.sys.drv.AttributeValue(tok, el.h, name)
	})
}

// AttributeValueCount returns the reported size of an array-valued
// attribute without materializing it. Absence resolves to zero.
func (el Element) AttributeValueCount(ctx context.Context, name string) (int64, error) {
	out, err := el.perform(ctx, "attribute_value_count", func(tok runloop.Token) rawResult {
		n, st := el.sys.drv.AttributeValueCount(tok, el.h, name)
		return rawResult{native: n, st: st}
	})
	if err != nil {
		return 0, err
	}
	native, err := el.sys.outcome("attribute_value_count", name, el.pid, out.native, out.st)
	if err != nil || native == nil {
		return 0, err
	}
	n, _ := native.(int64)
	return n, nil
}

// AttributeNames lists the attributes the element supports.
func (el Element) AttributeNames(ctx context.Context) ([]string, error) {
	return el.names(ctx, "attribute_names", func(tok runloop.Token) ([]string, Status) {
		return el.sys.drv.AttributeNames(tok, el.h)
	})
}

// ParameterizedAttributeNames lists the parameterized attributes the
// element supports.
func (el Element) ParameterizedAttributeNames(ctx context.Context) ([]string, error) {
	return el.names(ctx, "parameterized_attribute_names", func(tok runloop.Token) ([]string, Status) {
		return el.sys.drv.ParameterizedAttributeNames(tok, el.h)
	})
}

// ParameterizedAttributeValue queries a parameterized attribute, encoding
// the input and decoding the result through the value bridge.
func (el Element) ParameterizedAttributeValue(ctx context.Context, name string, param Value) (Value, error) {
	return el.fetch(ctx, "parameterized_attribute_value", name, func(tok runloop.Token) (any, Status) {
		return el.sys.drv.ParameterizedAttributeValue(tok, el.h, name, Encode(param))
	})
}

// Value fetches the element's value attribute. Text containers report
// their length first, and a value past the character ceiling resolves as
// absent rather than marshaling an arbitrarily large payload.
func (el Element) Value(ctx context.Context) (Value, error) {
	if !el.Valid() {
		return Value{}, detachedError("value")
	}
	if max := el.sys.limits.MaxValueChars; max > 0 {
		v, err := el.AttributeValue(ctx, AttrNumberOfCharacters)
		if err != nil {
			return Value{}, err
		}
		if n, ok := v.AsInt(); ok && n > max {
			el.sys.truncations.Add(1)
			el.sys.logger.Warn("refusing to marshal oversized value",
				zap.Int64("characters", n),
				zap.Int64("limit", max),
				zap.Int32("pid", el.pid),
			)
			return Value{}, nil
		}
	}
	return el.AttributeValue(ctx, AttrValue)
}

// Label returns the element's human-readable label: the title, falling
// back to the description when the title is absent or empty.
func (el Element) Label(ctx context.Context) (string, error) {
	title, err := el.StringAttribute(ctx, AttrTitle)
	if err != nil || title != "" {
		return title, err
	}
	return el.StringAttribute(ctx, AttrDescription)
}

// StringAttribute fetches an attribute and returns its text content, ""
// when the attribute is absent or not text.
func (el Element) StringAttribute(ctx context.Context, name string) (string, error) {
	v, err := el.AttributeValue(ctx, name)
	if err != nil {
		return "", err
	}
	s, _ := v.AsString()
	return s, nil
}

// Role returns the element's role, "" when absent.
func (el Element) Role(ctx context.Context) (string, error) {
	return el.StringAttribute(ctx, AttrRole)
}

// Title returns the element's title, "" when absent.
func (el Element) Title(ctx context.Context) (string, error) {
	return el.StringAttribute(ctx, AttrTitle)
}

// ================================ Structure ==================================

// Children returns the element's direct children. The reported count is
// queried first; a collection past the configured ceiling resolves as nil
// rather than materializing an unbounded array.
func (el Element) Children(ctx context.Context) ([]Element, error) {
	return el.elements(ctx, "children", AttrChildren)
}

// Contents returns the secondary contents relation, under the same ceiling
// as Children.
func (el Element) Contents(ctx context.Context) ([]Element, error) {
	return el.elements(ctx, "contents", AttrContents)
}

// Parent returns the direct parent, a zero Element at the root.
func (el Element) Parent(ctx context.Context) (Element, error) {
	return el.ParentAt(ctx, 1)
}

/// ParentAt climbs level ancestors: level 0 is the element itself, level 1
// the parent. Climbing past the root resolves as a zero Element.
func (el Element) ParentAt(ctx context.Context, level int) (Element, error) {
	if !el.Valid() {
		return Element{}, detachedError("parent_at")
	}
	if level < 0 {
		return Element{}, NewError(CodeInternal, "negative ancestor level").
			WithOp("parent_at").WithPID(el.pid)
	}
	cur := el
	for i := 0; i < level; i++ {
		v, err := cur.AttributeValue(ctx, AttrParent)
		if err != nil {
			return Element{}, err
		}
		if v.Kind != KindElement {
			return Element{}, nil
		}
		cur = Element{sys: el.sys, h: v.Ref.Handle, pid: el.pid}
	}
	return cur, nil
}

func (el Element) elements(ctx context.Context, op, attr string) ([]Element, error) {
	if !el.Valid() {
		return nil, detachedError(op)
	}
	count, err := el.AttributeValueCount(ctx, attr)
	if err != nil {
		return nil, err
	}
	if max := el.sys.limits.MaxChildren; max > 0 && count > int64(max) {
		el.sys.truncations.Add(1)
		el.sys.logger.Warn("refusing to materialize oversized collection",
			zap.String("attribute", attr),
			zap.Int64("count", count),
			zap.Int("limit", max),
			zap.Int32("pid", el.pid),
		)
		return nil, nil
	}
	v, err := el.fetch(ctx, op, attr, func(tok runloop.Token) (any, Status) {
		return el.sys.drv.AttributeValue(tok, el.h, attr)
	})
	if err != nil || v.IsAbsent() {
		return nil, err
	}
	return el.rebind(v), nil
}

// rebind converts element-kind values into Elements bound to this system.
// Non-element members of a mixed array are skipped.
func (el Element) rebind(v Value) []Element {
	switch v.Kind {
	case KindElement:
		return []Element{{sys: el.sys, h: v.Ref.Handle, pid: el.pid}}
	case KindArray:
		out := make([]Element, 0, len(v.Array))
		for _, item := range v.Array {
			if item.Kind == KindElement {
				out = append(out, Element{sys: el.sys, h: item.Ref.Handle, pid: el.pid})
			}
		}
		return out
	default:
		return nil
	}
}

// ============================= Actions and writes ============================

// ActionNames lists the actions the element supports.
func (el Element) ActionNames(ctx context.Context) ([]string, error) {
	return el.names(ctx, "action_names", func(tok runloop.Token) ([]string, Status) {
		return el.sys.drv.ActionNames(tok, el.h)
	})
}

// PerformAction triggers a named action. An unsupported action is expected
// absence and resolves as success.
func (el Element) PerformAction(ctx context.Context, name string) error {
	return el.statusOnly(ctx, "perform_action", name, func(tok runloop.Token) Status {
		return el.sys.drv.PerformAction(tok, el.h, name)
	})
}

// SetAttributeValue writes one attribute through the value bridge.
func (el Element) SetAttributeValue(ctx context.Context, name string, v Value) error {
	return el.statusOnly(ctx, "set_attribute_value", name, func(tok runloop.Token) Status {
		return el.sys.drv.SetAttributeValue(tok, el.h, name, Encode(v))
	})
}

// SetMessagingTimeout overrides the native messaging timeout for calls
// through this element. Zero restores the global default.
func (el Element) SetMessagingTimeout(ctx context.Context, timeout time.Duration) error {
	return el.statusOnly(ctx, "set_messaging_timeout", "", func(tok runloop.Token) Status {
		return el.sys.drv.SetMessagingTimeout(tok, el.h, timeout)
	})
}

// ================================= Plumbing ==================================

type rawResult struct {
	native any
	st     Status
}

func detachedError(op string) *Error {
	return NewError(CodeInvalidElement, "element is detached").WithOp(op)
}

// perform runs one native call on the loop and returns its raw outcome.
func (el Element) perform(ctx context.Context, op string, call func(runloop.Token) rawResult) (rawResult, error) {
	if !el.Valid() {
		return rawResult{}, detachedError(op)
	}
	return runloop.Perform(ctx, el.sys.loop, func(tok runloop.Token) (rawResult, error) {
		return call(tok), nil
	})
}

// fetch runs one attribute-shaped native call and decodes the result under
// the degradation policy.
func (el Element) fetch(ctx context.Context, op, name string, call func(runloop.Token) (any, Status)) (Value, error) {
	out, err := el.perform(ctx, op, func(tok runloop.Token) rawResult {
		native, st := call(tok)
		return rawResult{native: native, st: st}
	})
	if err != nil {
		return Value{}, err
	}
	native, err := el.sys.outcome(op, name, el.pid, out.native, out.st)
	if err != nil || native == nil {
		return Value{}, err
	}
	v, ok := Decode(native)
	if !ok {
		el.sys.undecodable.Add(1)
		el.sys.logger.Debug("native value outside the closed type set",
			zap.String("attribute", name),
			zap.Int32("pid", el.pid),
		)
		return Value{}, nil
	}
	return v, nil
}

// names runs one name-list native call.
func (el Element) names(ctx context.Context, op string, call func(runloop.Token) ([]string, Status)) ([]string, error) {
	out, err := el.perform(ctx, op, func(tok runloop.Token) rawResult {
		list, st := call(tok)
		return rawResult{native: list, st: st}
	})
	if err != nil {
		return nil, err
	}
	native, err := el.sys.outcome(op, "", el.pid, out.native, out.st)
	if err != nil || native == nil {
		return nil, err
	}
	list, _ := native.([]string)
	return list, nil
}

// statusOnly runs one native call that returns no value.
func (el Element) statusOnly(ctx context.Context, op, name string, call func(runloop.Token) Status) error {
	out, err := el.perform(ctx, op, func(tok runloop.Token) rawResult {
		return rawResult{st: call(tok)}
	})
	if err != nil {
		return err
	}
	_, err = el.sys.outcome(op, name, el.pid, nil, out.st)
	return err
}
