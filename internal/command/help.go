package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/objtree/internal/object"
)

// helpCmd describes the object, attribute or action named by PATH.
func helpCmd(d *Dispatcher, args []string, out io.Writer) Status {
	path := ""
	if len(args) >= 2 {
		path = args[1]
	}
	if node, err := d.tree.ResolveNode(path); err == nil {
		writeNodeHelp(out, path, node)
		return Success
	}
	if a, err := d.tree.ResolveAttribute(path); err == nil {
		writeAttributeHelp(out, a)
		return Success
	}
	act, err := d.tree.ResolveAction(path)
	if err != nil {
		return fail(out, err)
	}
	_, _ = fmt.Fprintf(out, "Action %q of object %q\n", act.Name(), ownerPath(act.Path(), act.Name()))
	if act.Doc() != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", act.Doc())
	}
	return Success
}

func writeNodeHelp(out io.Writer, path string, n *object.Node) {
	var b strings.Builder
	fmt.Fprintf(&b, "Object %q\n", path)
	for _, a := range n.Attributes() {
		if a.Doc() != "" {
			fmt.Fprintf(&b, "  %s: %s\n", a.Name(), a.Doc())
		}
	}
	for _, act := range n.Actions() {
		fmt.Fprintf(&b, "  %s", act.Name())
		if act.Doc() != "" {
			fmt.Fprintf(&b, ": %s", act.Doc())
		}
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(out, b.String())
}

func writeAttributeHelp(out io.Writer, a *object.Attribute) {
	var b strings.Builder
	fmt.Fprintf(&b, "Attribute %q of object %q\n", a.Name(), ownerPath(a.Path(), a.Name()))
	fmt.Fprintf(&b, "Type: %s\n", a.Kind())
	writeable := "no"
	if a.CanWrite() {
		writeable = "yes"
	}
	fmt.Fprintf(&b, "Writeable: %s\n", writeable)
	fmt.Fprintf(&b, "Current value: %s\n", a.String())
	if a.IsProxy() {
		targets := a.Targets()
		paths := make([]string, len(targets))
		for i, t := range targets {
			paths[i] = t.Path()
		}
		fmt.Fprintf(&b, "Forwards to: %s\n", strings.Join(paths, ", "))
	}
	if a.Doc() != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Doc())
	}
	_, _ = io.WriteString(out, b.String())
}

func ownerPath(full, name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(full, name), string(object.Separator))
}
