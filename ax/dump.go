package ax

import (
	"context"
	"fmt"
	"strings"
)

// DumpOptions bounds a diagnostic subtree dump.
type DumpOptions struct {
	// Attributes is the bounded attribute set read per node. Nil means
	// DefaultDumpAttributes.
	Attributes []string

	// MaxChildren caps how many children are listed per node; the rest are
	// summarized by an explicit marker. Default 10.
	MaxChildren int

	// Depth is how many levels below the root are expanded. 0 dumps the
	// root only.
	Depth int

	// Parents is how many ancestor levels are included above the root,
	// unexpanded. 0 includes none.
	Parents int
}

func (o DumpOptions) withDefaults() DumpOptions {
	if o.Attributes == nil {
		o.Attributes = DefaultDumpAttributes
	}
	if o.MaxChildren <= 0 {
		o.MaxChildren = 10
	}
	return o
}

// DumpAttribute is one present attribute on a dumped node.
type DumpAttribute struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// DumpNode is the structured projection of one element.
type DumpNode struct {
	Role       string          `json:"role,omitempty"`
	Title      string          `json:"title,omitempty"`
	Attributes []DumpAttribute `json:"attributes,omitempty"`
	Children   []*DumpNode     `json:"children,omitempty"`

	// OmittedChildren counts children that exist but are not listed, from
	// the per-node cap, the collection ceiling, or depth exhaustion.
	OmittedChildren int64 `json:"omitted_children,omitempty"`
}

// Dump is a bounded diagnostic snapshot of a subtree, with optional
// unexpanded ancestor context.
type Dump struct {
	Ancestors []*DumpNode `json:"ancestors,omitempty"` // outermost first
	Root      *DumpNode   `json:"root"`
}

// DumpElement reads a bounded projection of the subtree under el. It is a
// plain sequence of element reads with no concurrency of its own; boundary
// errors propagate to the caller.
func DumpElement(ctx context.Context, el Element, opts DumpOptions) (*Dump, error) {
	opts = opts.withDefaults()
	if !el.Valid() {
		return nil, detachedError("dump")
	}

	root, err := dumpNode(ctx, el, opts, opts.Depth)
	if err != nil {
		return nil, err
	}
	d := &Dump{Root: root}

	cur := el
	for i := 0; i < opts.Parents; i++ {
		parent, err := cur.Parent(ctx)
		if err != nil {
			return nil, err
		}
		if !parent.Valid() {
			break
		}
		node, err := dumpNode(ctx, parent, opts, 0)
		if err != nil {
			return nil, err
		}
		// Collected nearest-first, rendered outermost-first.
		d.Ancestors = append([]*DumpNode{node}, d.Ancestors...)
		cur = parent
	}
	return d, nil
}

func dumpNode(ctx context.Context, el Element, opts DumpOptions, depth int) (*DumpNode, error) {
	node := &DumpNode{}
	for _, name := range opts.Attributes {
		v, err := el.AttributeValue(ctx, name)
		if err != nil {
			return nil, err
		}
		if v.IsAbsent() {
			continue
		}
		switch name {
		case AttrRole:
			node.Role, _ = v.AsString()
		case AttrTitle:
			node.Title, _ = v.AsString()
		default:
			node.Attributes = append(node.Attributes, DumpAttribute{Name: name, Value: v})
		}
	}

	count, err := el.AttributeValueCount(ctx, AttrChildren)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return node, nil
	}
	if depth <= 0 {
		node.OmittedChildren = count
		return node, nil
	}

	children, err := el.Children(ctx)
	if err != nil {
		return nil, err
	}
	if children == nil {
		// Past the collection ceiling; summarize instead of listing.
		node.OmittedChildren = count
		return node, nil
	}

	listed := len(children)
	if listed > opts.MaxChildren {
		listed = opts.MaxChildren
	}
	for _, child := range children[:listed] {
		childNode, err := dumpNode(ctx, child, opts, depth-1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	node.OmittedChildren = count - int64(listed)
	return node, nil
}

// String renders the dump as an indented text tree.
func (d *Dump) String() string {
	var b strings.Builder
	indent := 0
	for _, anc := range d.Ancestors {
		writeDumpNode(&b, anc, indent)
		indent++
	}
	writeDumpNode(&b, d.Root, indent)
	return b.String()
}

func writeDumpNode(b *strings.Builder, node *DumpNode, indent int) {
	pad := strings.Repeat("  ", indent)
	b.WriteString(pad)
	if node.Role != "" {
		b.WriteString(node.Role)
	} else {
		b.WriteString("<no role>")
	}
	if node.Title != "" {
		fmt.Fprintf(b, " %q", node.Title)
	}
	if len(node.Attributes) > 0 {
		parts := make([]string, len(node.Attributes))
		for i, attr := range node.Attributes {
			parts[i] = attr.Name + ": " + attr.Value.String()
		}
		b.WriteString(" {" + strings.Join(parts, ", ") + "}")
	}
	b.WriteByte('\n')
	for _, child := range node.Children {
		writeDumpNode(b, child, indent+1)
	}
	if node.OmittedChildren > 0 {
		fmt.Fprintf(b, "%s  … (%d more elements)\n", pad, node.OmittedChildren)
	}
}
