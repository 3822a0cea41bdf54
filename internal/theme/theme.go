// Package theme registers the window decoration schemes. Every scheme
// attribute written at a higher level is forwarded to the schemes below
// it through proxy attributes.
package theme

import (
	"errors"

	"github.com/agentic-research/objtree/internal/object"
)

// Decoration types, in listing order.
var Types = []string{"fullscreen", "tiling", "floating", "minimal"}

// States of a decoration triple, in listing order.
var States = []string{"normal", "active", "urgent"}

const resetText = "Writing this resets all attributes to a default value"

type field struct {
	name string
	def  object.Value
}

var fields = []field{
	{"border_width", object.IntValue(1)},
	{"border_color", object.MustColor("black")},
	{"tight_decoration", object.BoolValue(false)},
	{"inner_color", object.MustColor("black")},
	{"inner_width", object.IntValue(0)},
	{"outer_color", object.MustColor("black")},
	{"outer_width", object.IntValue(0)},
	{"padding_top", object.IntValue(0)},
	{"padding_right", object.IntValue(0)},
	{"padding_bottom", object.IntValue(0)},
	{"padding_left", object.IntValue(0)},
	{"background_color", object.MustColor("black")},
}

// FieldNames lists the attributes every scheme carries, reset excluded.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// Theme owns the theme node and its decoration triples.
type Theme struct {
	node      *object.Node
	listeners []func()
}

// New builds the complete theme subtree. It is not linked anywhere yet.
func New() *Theme {
	t := &Theme{node: object.NewNode("theme")}

	triples := make(map[string]*object.Node, len(Types))
	for _, typ := range Types {
		triple := t.newTriple(typ)
		triples[typ] = triple
		mustLink(t.node, triple)
	}

	// theme.normal and friends forward to tiling and floating only
	tiling, floating := triples["tiling"], triples["floating"]
	states := make([]*object.Node, 0, len(States))
	for _, state := range States {
		s := newProxyScheme(state, tiling.Child(state), floating.Child(state))
		states = append(states, s)
		mustLink(t.node, s)
	}
	addProxies(t.node, states...)
	return t
}

func (t *Theme) Node() *object.Node { return t.node }

// OnChange runs fn after any committed change of a stored scheme value.
func (t *Theme) OnChange(fn func()) { t.listeners = append(t.listeners, fn) }

func (t *Theme) emit() {
	for _, fn := range t.listeners {
		fn()
	}
}

// newTriple creates a decoration type with its three stored schemes. The
// triple's own attributes proxy to all three.
func (t *Theme) newTriple(name string) *object.Node {
	triple := object.NewNode(name)
	schemes := make([]*object.Node, 0, len(States))
	for _, state := range States {
		s := t.newScheme(state)
		schemes = append(schemes, s)
		mustLink(triple, s)
	}
	addProxies(triple, schemes...)
	return triple
}

// newScheme creates a scheme holding actual values.
func (t *Theme) newScheme(name string) *object.Node {
	scheme := object.NewNode(name)
	for _, f := range fields {
		a := object.NewAttribute(f.name, f.def).WithValidator(validatorFor(f.name))
		a.OnChange(func(object.Change) { t.emit() })
		scheme.MustAddAttributes(a)
	}
	reset := object.NewComputedString("reset", func() string { return resetText }).
		WithStringValidator(func(string) error {
			var errs []error
			for _, f := range fields {
				errs = append(errs, scheme.Attribute(f.name).Reset())
			}
			return errors.Join(errs...)
		})
	scheme.MustAddAttributes(reset)
	return scheme
}

// newProxyScheme creates a scheme whose attributes forward to targets.
func newProxyScheme(name string, targets ...*object.Node) *object.Node {
	scheme := object.NewNode(name)
	addProxies(scheme, targets...)
	return scheme
}

// addProxies registers on n one proxy per scheme attribute, reset
// included, forwarding to the same attribute of each target scheme.
func addProxies(n *object.Node, targets ...*object.Node) {
	for _, name := range append(FieldNames(), "reset") {
		attrs := make([]*object.Attribute, len(targets))
		for i, target := range targets {
			attrs[i] = target.Attribute(name)
		}
		n.MustAddAttributes(object.MustProxy(name, attrs...))
	}
}

func validatorFor(name string) object.Validator {
	switch name {
	case "border_width", "inner_width", "outer_width",
		"padding_top", "padding_right", "padding_bottom", "padding_left":
		return nonNegative
	default:
		return object.AcceptAll
	}
}

func nonNegative(v object.Value) error {
	if v.(object.IntValue) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func mustLink(parent, child *object.Node) {
	if err := parent.AddChild(child); err != nil {
		panic(err)
	}
}
