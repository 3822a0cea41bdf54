package object

import (
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a named container of child nodes, attributes and actions.
// Children are owned by their parent; the parent link does not own.
type Node struct {
	name   string
	parent *Node

	children *orderedmap.OrderedMap[string, *Node]
	attrs    *orderedmap.OrderedMap[string, *Attribute]
	actions  *orderedmap.OrderedMap[string, *Action]

	hooks  []nodeHook
	nextID uint64
}

type nodeHook struct {
	id      uint64
	subtree bool
	fn      Hook
}

func NewNode(name string) *Node {
	return &Node{
		name:     name,
		children: orderedmap.New[string, *Node](),
		attrs:    orderedmap.New[string, *Attribute](),
		actions:  orderedmap.New[string, *Action](),
	}
}

func (n *Node) Name() string  { return n.name }
func (n *Node) Parent() *Node { return n.parent }

// Path joins the names from the topmost ancestor down to n. The topmost
// node itself is not part of the path, so the root's path is empty.
func (n *Node) Path() string {
	if n.parent == nil {
		return ""
	}
	p := n.parent.Path()
	if p == "" {
		return n.name
	}
	return p + string(Separator) + n.name
}

// -----------------------------------------------------------------------------
// Children
// -----------------------------------------------------------------------------

func (n *Node) Child(name string) *Node {
	c, _ := n.children.Get(name)
	return c
}

// Children returns the children in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.children.Len())
	for p := n.children.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// AddChild links c below n under c's name.
func (n *Node) AddChild(c *Node) error {
	if c.parent != nil {
		return fmt.Errorf("node %q is already linked below %q", c.name, c.parent.Path())
	}
	if hasSeparator(c.name) || c.name == "" {
		return fmt.Errorf("invalid child name %q", c.name)
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			return fmt.Errorf("linking %q below %q would create a cycle", c.name, n.Path())
		}
	}
	if _, ok := n.children.Get(c.name); ok {
		return fmt.Errorf("%w: child %q in object %q", ErrDuplicateName, c.name, n.Path())
	}
	n.children.Set(c.name, c)
	c.parent = n
	return nil
}

// RemoveChild unlinks the named child and tears its subtree down.
func (n *Node) RemoveChild(name string) error {
	c, ok := n.children.Delete(name)
	if !ok {
		return &PathError{Path: name, Parent: n.displayName(), Segment: name}
	}
	c.destroy()
	return nil
}

func (n *Node) destroy() {
	for p := n.children.Oldest(); p != nil; p = p.Next() {
		p.Value.destroy()
	}
	for p := n.attrs.Oldest(); p != nil; p = p.Next() {
		p.Value.release()
	}
	n.children = orderedmap.New[string, *Node]()
	n.attrs = orderedmap.New[string, *Attribute]()
	n.actions = orderedmap.New[string, *Action]()
	n.hooks = nil
	n.parent = nil
}

// -----------------------------------------------------------------------------
// Attributes
// -----------------------------------------------------------------------------

// AddAttribute registers a on n. Attribute and child names live in
// separate namespaces.
func (n *Node) AddAttribute(a *Attribute) error {
	if a.owner != nil {
		return fmt.Errorf("attribute %q already belongs to %q", a.name, a.owner.Path())
	}
	if hasSeparator(a.name) || a.name == "" {
		return fmt.Errorf("invalid attribute name %q", a.name)
	}
	if _, ok := n.attrs.Get(a.name); ok {
		return fmt.Errorf("%w: an attribute called %q already exists", ErrDuplicateName, a.name)
	}
	n.attrs.Set(a.name, a)
	a.owner = n
	return nil
}

// MustAddAttributes registers built-in attributes; a clash is a
// programming error.
func (n *Node) MustAddAttributes(attrs ...*Attribute) {
	for _, a := range attrs {
		if err := n.AddAttribute(a); err != nil {
			panic(err)
		}
	}
}

func (n *Node) Attribute(name string) *Attribute {
	a, _ := n.attrs.Get(name)
	return a
}

// Attributes returns the attributes in registration order.
func (n *Node) Attributes() []*Attribute {
	out := make([]*Attribute, 0, n.attrs.Len())
	for p := n.attrs.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// RemoveAttribute unregisters an attribute. Only user defined attributes
// can be removed.
func (n *Node) RemoveAttribute(name string) error {
	a, ok := n.attrs.Get(name)
	if !ok {
		return &AttributeError{Name: name, Object: n.Path() + string(Separator)}
	}
	if !a.userDefined {
		return fmt.Errorf("%w: %q is not user-defined", ErrForbidden, a.Path())
	}
	n.attrs.Delete(name)
	a.release()
	return nil
}

// -----------------------------------------------------------------------------
// Hooks
// -----------------------------------------------------------------------------

// AddHook notifies fn about committed changes of attributes owned by n.
func (n *Node) AddHook(fn Hook) (cancel func()) { return n.addHook(fn, false) }

// AddSubtreeHook notifies fn about changes anywhere below n, n included.
func (n *Node) AddSubtreeHook(fn Hook) (cancel func()) { return n.addHook(fn, true) }

func (n *Node) addHook(fn Hook, subtree bool) func() {
	n.nextID++
	id := n.nextID
	n.hooks = append(n.hooks, nodeHook{id: id, subtree: subtree, fn: fn})
	return func() {
		n.hooks = slices.DeleteFunc(n.hooks, func(h nodeHook) bool { return h.id == id })
	}
}

// HookCount is the number of hooks registered directly on n.
func (n *Node) HookCount() int { return len(n.hooks) }

// fireHooks runs n's hooks, then the subtree hooks of each ancestor,
// nearest first.
func (n *Node) fireHooks(ch Change) {
	for _, h := range slices.Clone(n.hooks) {
		h.fn(ch)
	}
	for p := n.parent; p != nil; p = p.parent {
		for _, h := range slices.Clone(p.hooks) {
			if h.subtree {
				h.fn(ch)
			}
		}
	}
}

func (n *Node) displayName() string {
	if n.parent == nil {
		return "root"
	}
	return n.name
}
