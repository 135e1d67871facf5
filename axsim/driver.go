package axsim

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/runloop"
)

// Driver is a simulated ax.Driver over an in-memory tree.
type Driver struct {
	mu     sync.Mutex
	nextID uint64
	nodes  map[uint64]*Node
	roots  map[int32]*Node
	system *Node

	observers   map[uint64]*simObserver
	nextObsID   uint64
	apiDisabled bool
	latency     time.Duration

	violations atomic.Uint64
}

type simObserver struct {
	id       uint64
	pid      int32
	cb       ax.ObserverCallback
	attached bool
	invalid  bool
	subs     map[subKey]struct{}
}

type subKey struct {
	node         uint64
	notification string
}

// New creates an empty simulated world with a system-wide root.
func New() *Driver {
	d := &Driver{
		nodes:     map[uint64]*Node{},
		roots:     map[int32]*Node{},
		observers: map[uint64]*simObserver{},
	}
	d.mu.Lock()
	d.system = d.newNode(0, ax.RoleSystemWide, "")
	d.mu.Unlock()
	return d
}

// Root creates (or returns) the application root for pid.
func (d *Driver) Root(pid int32, title string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.roots[pid]; ok {
		return n
	}
	n := d.newNode(pid, ax.RoleApplication, title)
	d.roots[pid] = n
	return n
}

// SetAPIDisabled switches the whole introspection API off, as when the
// process lacks accessibility trust.
func (d *Driver) SetAPIDisabled(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apiDisabled = v
}

// SetLatency delays every driver call by dur, for exercising caller-side
// cancellation while a job is slow on the loop.
func (d *Driver) SetLatency(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latency = dur
}

// Invalidate marks the node and its whole subtree stale, as when the
// target destroys that part of its UI. Handles survive; operations on them
// report StatusInvalidElement.
func (d *Driver) Invalidate(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	markStale(n)
}

func markStale(n *Node) {
	n.stale = true
	for _, c := range n.children {
		markStale(c)
	}
}

// ConfinementViolations counts driver calls attempted without a valid run
// loop token.
func (d *Driver) ConfinementViolations() uint64 {
	return d.violations.Load()
}

// Fire delivers a notification on target to every attached observer
// subscribed to it, invoking callbacks with the caller's token. It must run
// on the loop, which is where the native API fires callbacks. A stale
// target is deliverable: destruction notifications arrive with an already
// stale subject. Returns the number of callbacks invoked.
func (d *Driver) Fire(tok runloop.Token, target *Node, notification string, payload map[string]any) int {
	if !tok.Valid() {
		d.violations.Add(1)
		return 0
	}
	d.mu.Lock()
	var cbs []ax.ObserverCallback
	key := subKey{node: target.id, notification: notification}
	for _, obs := range d.observers {
		if obs.attached && !obs.invalid {
			if _, ok := obs.subs[key]; ok {
				cbs = append(cbs, obs.cb)
			}
		}
	}
	d.mu.Unlock()

	for _, cb := range cbs {
		cb(tok, target, notification, payload)
	}
	return len(cbs)
}

// ============================ ax.Driver protocol =============================

// gate performs the checks every native call shares: confinement first,
// then the scripted per-call latency.
func (d *Driver) gate(tok runloop.Token) ax.Status {
	if !tok.Valid() {
		d.violations.Add(1)
		return ax.StatusFailure
	}
	d.mu.Lock()
	latency := d.latency
	disabled := d.apiDisabled
	d.mu.Unlock()
	if latency > 0 {
		time.Sleep(latency)
	}
	if disabled {
		return ax.StatusAPIDisabled
	}
	return ax.StatusSuccess
}

// resolve casts and checks a handle. Callers hold d.mu.
func (d *Driver) resolve(h ax.Handle) (*Node, ax.Status) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, ax.StatusIllegalArgument
	}
	if n.stale {
		return nil, ax.StatusInvalidElement
	}
	if n.unresponsive {
		return nil, ax.StatusCannotComplete
	}
	return n, ax.StatusSuccess
}

func (d *Driver) ApplicationElement(tok runloop.Token, pid int32) (ax.Handle, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.roots[pid]
	if !ok {
		// An unknown pid behaves like a process that never answers.
		return nil, ax.StatusCannotComplete
	}
	return n, ax.StatusSuccess
}

func (d *Driver) SystemWideElement(tok runloop.Token) (ax.Handle, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.system, ax.StatusSuccess
}

func (d *Driver) SameElement(tok runloop.Token, a, b ax.Handle) (bool, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return false, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	na, ok := a.(*Node)
	if !ok || na == nil {
		return false, ax.StatusIllegalArgument
	}
	nb, ok := b.(*Node)
	if !ok || nb == nil {
		return false, ax.StatusIllegalArgument
	}
	return na == nb, ax.StatusSuccess
}

func (d *Driver) ElementPID(tok runloop.Token, h ax.Handle) (int32, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return 0, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return 0, st
	}
	return n.pid, ax.StatusSuccess
}

func (d *Driver) AttributeNames(tok runloop.Token, h ax.Handle) ([]string, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return nil, st
	}
	names := make([]string, 0, len(n.attrs)+3)
	for name := range n.attrs {
		names = append(names, name)
	}
	names = append(names, ax.AttrChildren, ax.AttrParent)
	if n.contents != nil {
		names = append(names, ax.AttrContents)
	}
	sort.Strings(names)
	return names, ax.StatusSuccess
}

func (d *Driver) AttributeValue(tok runloop.Token, h ax.Handle, name string) (any, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return nil, st
	}
	switch name {
	case ax.AttrChildren:
		return refs(n.children), ax.StatusSuccess
	case ax.AttrContents:
		if n.contents == nil {
			return nil, ax.StatusAttributeUnsupported
		}
		return refs(n.contents), ax.StatusSuccess
	case ax.AttrParent:
		if n.parent == nil {
			return nil, ax.StatusNoValue
		}
		return ax.Ref{Handle: n.parent}, ax.StatusSuccess
	}
	value, ok := n.attrs[name]
	if !ok {
		return nil, ax.StatusAttributeUnsupported
	}
	if value == nil {
		return nil, ax.StatusNoValue
	}
	return value, ax.StatusSuccess
}

func (d *Driver) AttributeValueCount(tok runloop.Token, h ax.Handle, name string) (int64, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return 0, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return 0, st
	}
	switch name {
	case ax.AttrChildren:
		return int64(len(n.children)), ax.StatusSuccess
	case ax.AttrContents:
		if n.contents == nil {
			return 0, ax.StatusAttributeUnsupported
		}
		return int64(len(n.contents)), ax.StatusSuccess
	}
	value, ok := n.attrs[name]
	if !ok {
		return 0, ax.StatusAttributeUnsupported
	}
	if arr, ok := value.([]any); ok {
		return int64(len(arr)), ax.StatusSuccess
	}
	return 0, ax.StatusIllegalArgument
}

func (d *Driver) SetAttributeValue(tok runloop.Token, h ax.Handle, name string, value any) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return st
	}
	n.attrs[name] = value
	return ax.StatusSuccess
}

func (d *Driver) ParameterizedAttributeNames(tok runloop.Token, h ax.Handle) ([]string, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return nil, st
	}
	names := make([]string, 0, len(n.paramAttrs))
	for name := range n.paramAttrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, ax.StatusSuccess
}

func (d *Driver) ParameterizedAttributeValue(tok runloop.Token, h ax.Handle, name string, param any) (any, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	fn := (func(any) any)(nil)
	n, st := d.resolve(h)
	if st == ax.StatusSuccess {
		fn = n.paramAttrs[name]
	}
	d.mu.Unlock()
	if st != ax.StatusSuccess {
		return nil, st
	}
	if fn == nil {
		return nil, ax.StatusParameterizedAttributeUnsupported
	}
	return fn(param), ax.StatusSuccess
}

func (d *Driver) ActionNames(tok runloop.Token, h ax.Handle) ([]string, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return nil, st
	}
	return append([]string(nil), n.actions...), ax.StatusSuccess
}

func (d *Driver) PerformAction(tok runloop.Token, h ax.Handle, name string) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return st
	}
	for _, a := range n.actions {
		if a == name {
			n.performed = append(n.performed, name)
			return ax.StatusSuccess
		}
	}
	return ax.StatusActionUnsupported
}

func (d *Driver) SetMessagingTimeout(tok runloop.Token, h ax.Handle, timeout time.Duration) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return st
	}
	n.msgTimeout = timeout
	return ax.StatusSuccess
}

func (d *Driver) CreateObserver(tok runloop.Token, pid int32, cb ax.ObserverCallback) (ax.ObserverHandle, ax.Status) {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return nil, st
	}
	if cb == nil {
		return nil, ax.StatusIllegalArgument
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextObsID++
	obs := &simObserver{
		id:   d.nextObsID,
		pid:  pid,
		cb:   cb,
		subs: map[subKey]struct{}{},
	}
	d.observers[obs.id] = obs
	return obs, ax.StatusSuccess
}

func (d *Driver) resolveObserver(h ax.ObserverHandle) (*simObserver, ax.Status) {
	obs, ok := h.(*simObserver)
	if !ok || obs == nil {
		return nil, ax.StatusIllegalArgument
	}
	if obs.invalid {
		return nil, ax.StatusInvalidObserver
	}
	return obs, ax.StatusSuccess
}

func (d *Driver) AddNotification(tok runloop.Token, oh ax.ObserverHandle, h ax.Handle, notification string) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obs, st := d.resolveObserver(oh)
	if st != ax.StatusSuccess {
		return st
	}
	n, st := d.resolve(h)
	if st != ax.StatusSuccess {
		return st
	}
	key := subKey{node: n.id, notification: notification}
	if _, ok := obs.subs[key]; ok {
		return ax.StatusNotificationAlreadyRegistered
	}
	obs.subs[key] = struct{}{}
	return ax.StatusSuccess
}

func (d *Driver) RemoveNotification(tok runloop.Token, oh ax.ObserverHandle, h ax.Handle, notification string) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obs, st := d.resolveObserver(oh)
	if st != ax.StatusSuccess {
		return st
	}
	n, ok := h.(*Node)
	if !ok || n == nil {
		return ax.StatusIllegalArgument
	}
	key := subKey{node: n.id, notification: notification}
	if _, ok := obs.subs[key]; !ok {
		return ax.StatusNotificationNotRegistered
	}
	delete(obs.subs, key)
	return ax.StatusSuccess
}

func (d *Driver) AttachObserver(tok runloop.Token, oh ax.ObserverHandle) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obs, st := d.resolveObserver(oh)
	if st != ax.StatusSuccess {
		return st
	}
	obs.attached = true
	return ax.StatusSuccess
}

func (d *Driver) InvalidateObserver(tok runloop.Token, oh ax.ObserverHandle) ax.Status {
	if st := d.gate(tok); st != ax.StatusSuccess {
		return st
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obs, ok := oh.(*simObserver)
	if !ok || obs == nil {
		return ax.StatusIllegalArgument
	}
	obs.invalid = true
	obs.attached = false
	obs.subs = map[subKey]struct{}{}
	return ax.StatusSuccess
}

func refs(nodes []*Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = ax.Ref{Handle: n}
	}
	return out
}
