package axsim

import (
	"time"

	"github.com/deskwatch/axcore/ax"
)

// Node is one simulated element. A *Node doubles as the ax.Handle the
// driver traffics in, the way a native reference wraps one tree node.
// Builder methods lock the owning driver and may be called from any
// goroutine.
type Node struct {
	d  *Driver
	id uint64

	pid      int32
	parent   *Node
	children []*Node
	contents []*Node

	attrs      map[string]any
	actions    []string
	paramAttrs map[string]func(param any) any

	stale        bool
	unresponsive bool
	msgTimeout   time.Duration

	performed []string
}

func (d *Driver) newNode(pid int32, role, title string) *Node {
	d.nextID++
	n := &Node{
		d:     d,
		id:    d.nextID,
		pid:   pid,
		attrs: map[string]any{},
	}
	if role != "" {
		n.attrs[ax.AttrRole] = role
	}
	if title != "" {
		n.attrs[ax.AttrTitle] = title
	}
	d.nodes[n.id] = n
	return n
}

// AddChild creates a child node with the given role and title, appends it,
// and returns it.
func (n *Node) AddChild(role, title string) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	child := n.d.newNode(n.pid, role, title)
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// SetAttr scripts one attribute in carrier form. A nil value scripts the
// "attribute supported but currently empty" condition.
func (n *Node) SetAttr(name string, value any) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	n.attrs[name] = value
	return n
}

// Attr returns the current carrier value of one attribute.
func (n *Node) Attr(name string) any {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return n.attrs[name]
}

// SetContents scripts the secondary contents relation.
func (n *Node) SetContents(nodes ...*Node) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	n.contents = append([]*Node(nil), nodes...)
	return n
}

// AddAction scripts a supported action.
func (n *Node) AddAction(name string) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	n.actions = append(n.actions, name)
	return n
}

// Performed returns the actions performed on the node, in order.
func (n *Node) Performed() []string {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return append([]string(nil), n.performed...)
}

// HandleParam scripts a parameterized attribute. fn receives the encoded
// input and returns the carrier result.
func (n *Node) HandleParam(name string, fn func(param any) any) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	if n.paramAttrs == nil {
		n.paramAttrs = map[string]func(any) any{}
	}
	n.paramAttrs[name] = fn
	return n
}

// SetUnresponsive makes every call through the node report a messaging
// timeout, as against a hung target process.
func (n *Node) SetUnresponsive(v bool) *Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	n.unresponsive = v
	return n
}

// Children returns the scripted children.
func (n *Node) Children() []*Node {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// MessagingTimeout returns the last timeout applied through the driver.
func (n *Node) MessagingTimeout() time.Duration {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return n.msgTimeout
}

// Grow adds width children per node, depth levels deep, for fabricating
// wide or deep trees in bounds tests.
func (n *Node) Grow(width, depth int) *Node {
	if depth <= 0 {
		return n
	}
	for i := 0; i < width; i++ {
		n.AddChild(ax.RoleGroup, "").Grow(width, depth-1)
	}
	return n
}
