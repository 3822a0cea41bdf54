package object

import (
	"fmt"
	"io"
)

// ActionFunc runs an action with its arguments, writing any output to out.
type ActionFunc func(args []string, out io.Writer) error

// Action is a named operation on a node.
type Action struct {
	name  string
	owner *Node
	doc   string
	run   ActionFunc
}

func (a *Action) Name() string { return a.name }
func (a *Action) Doc() string  { return a.doc }

func (a *Action) Path() string {
	p := a.owner.Path()
	if p == "" {
		return a.name
	}
	return p + string(Separator) + a.name
}

func (a *Action) Run(args []string, out io.Writer) error { return a.run(args, out) }

// AddAction registers an action on n.
func (n *Node) AddAction(name, doc string, fn ActionFunc) error {
	if hasSeparator(name) || name == "" {
		return fmt.Errorf("invalid action name %q", name)
	}
	if _, ok := n.actions.Get(name); ok {
		return fmt.Errorf("%w: an action called %q already exists", ErrDuplicateName, name)
	}
	n.actions.Set(name, &Action{name: name, owner: n, doc: doc, run: fn})
	return nil
}

func (n *Node) Action(name string) *Action {
	a, _ := n.actions.Get(name)
	return a
}

// Actions returns the actions in registration order.
func (n *Node) Actions() []*Action {
	out := make([]*Action, 0, n.actions.Len())
	for p := n.actions.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}
