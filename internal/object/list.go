package object

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// AttributeEntry is one attribute row of a Listing.
type AttributeEntry struct {
	Name      string
	Kind      Kind
	Writeable bool
	Hookable  bool
	Value     string
}

// Listing is a read-only view of one node.
type Listing struct {
	Children   []string
	Attributes []AttributeEntry
	Actions    []string
}

// List describes n without touching any state.
func List(n *Node) Listing {
	var l Listing
	for _, c := range n.Children() {
		l.Children = append(l.Children, c.Name())
	}
	for _, a := range n.Attributes() {
		l.Attributes = append(l.Attributes, AttributeEntry{
			Name:      a.Name(),
			Kind:      a.Kind(),
			Writeable: a.CanWrite(),
			Hookable:  a.Hookable(),
			Value:     a.String(),
		})
	}
	for _, act := range n.Actions() {
		l.Actions = append(l.Actions, act.Name())
	}
	return l
}

// WriteTo renders the listing in the attr command format.
func (l Listing) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString(countHeader(len(l.Children), "children"))
	for _, c := range l.Children {
		fmt.Fprintf(&b, "  %s%c\n", c, Separator)
	}
	if len(l.Children) > 0 {
		b.WriteByte('\n')
	}

	b.WriteString(countHeader(len(l.Attributes), "attributes"))
	if len(l.Attributes) > 0 {
		b.WriteString(" .---- type\n")
		b.WriteString(" | .-- writeable\n")
		b.WriteString(" V V\n")
	}
	for _, a := range l.Attributes {
		w := byte('-')
		if a.Writeable {
			w = 'w'
		}
		value := a.Value
		if a.Kind == KindString {
			value = `"` + value + `"`
		}
		fmt.Fprintf(&b, " %c %c %s = %s\n", a.Kind.Indicator(), w, a.Name, value)
	}

	if len(l.Actions) > 0 {
		b.WriteByte('\n')
		b.WriteString(countHeader(len(l.Actions), "actions"))
		for _, name := range l.Actions {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func countHeader(n int, what string) string {
	if n == 0 {
		return fmt.Sprintf("0 %s.\n", what)
	}
	return fmt.Sprintf("%d %s:\n", n, what)
}

// PrintTree draws the node hierarchy below n, one child per line.
func PrintTree(w io.Writer, caption string, n *Node) error {
	var b strings.Builder
	b.WriteString(caption)
	b.WriteByte('\n')
	printChildren(&b, n, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func printChildren(b *strings.Builder, n *Node, indent string) {
	children := n.Children()
	for i, c := range children {
		branch, cont := "├── ", "│   "
		if i == len(children)-1 {
			branch, cont = "└── ", "    "
		}
		b.WriteString(indent + branch + c.Name() + "\n")
		printChildren(b, c, indent+cont)
	}
}

// Snapshot converts the subtree below n into plain maps. Attributes map
// to their native values and children to nested maps; an attribute that
// shares its name with a child is stored under "@name".
func Snapshot(n *Node) map[string]any {
	out := make(map[string]any, len(n.Children())+len(n.Attributes()))
	for _, c := range n.Children() {
		out[c.Name()] = Snapshot(c)
	}
	for _, a := range n.Attributes() {
		key := a.Name()
		if n.Child(key) != nil {
			key = "@" + key
		}
		out[key] = native(a.Value())
	}
	return out
}

func native(v Value) any {
	switch v := v.(type) {
	case BoolValue:
		return bool(v)
	case IntValue:
		return int64(v)
	case UintValue:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
		return v.String()
	default:
		return v.String()
	}
}
