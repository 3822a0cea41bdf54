package command

import (
	"fmt"
	"io"

	"github.com/agentic-research/objtree/internal/object"
)

func getCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 2 {
		return NeedMoreArgs
	}
	a, err := d.tree.ResolveAttribute(args[1])
	if err != nil {
		return fail(out, err)
	}
	_, _ = io.WriteString(out, a.String())
	return Success
}

func setCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 3 {
		return NeedMoreArgs
	}
	a, err := d.tree.ResolveAttribute(args[1])
	if err != nil {
		return fail(out, err)
	}
	if err := a.Assign(args[2]); err != nil {
		return fail(out, err)
	}
	return Success
}

// attrCmd lists a node, prints an attribute, or writes one, depending on
// what the path names and whether a value is given.
func attrCmd(d *Dispatcher, args []string, out io.Writer) Status {
	path := ""
	if len(args) >= 2 {
		path = args[1]
	}
	node, err := d.tree.ResolveNode(path)
	if err != nil {
		a, aerr := d.tree.ResolveAttribute(path)
		if aerr != nil {
			return fail(out, aerr)
		}
		if len(args) >= 3 {
			if err := a.Assign(args[2]); err != nil {
				return fail(out, err)
			}
			return Success
		}
		_, _ = io.WriteString(out, a.String())
		return Success
	}
	if len(args) >= 3 {
		_, _ = fmt.Fprintf(out, "%s: Can not assign value %q to object %q\n", args[0], args[2], path)
		return InvalidArgument
	}
	_, _ = object.List(node).WriteTo(out)
	return Success
}

func printTreeCmd(d *Dispatcher, args []string, out io.Writer) Status {
	path := ""
	if len(args) >= 2 {
		path = args[1]
	}
	node, err := d.tree.ResolveNode(path)
	if err != nil {
		return fail(out, err)
	}
	caption := path
	if caption == "" {
		caption = node.Name()
	}
	if err := object.PrintTree(out, caption, node); err != nil {
		return fail(out, fmt.Errorf("%w: %w", ErrInternal, err))
	}
	return Success
}

func userAttributeCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 3 {
		return NeedMoreArgs
	}
	kind, err := object.ParseKind(args[1])
	if err != nil {
		return fail(out, err)
	}
	if _, err := d.tree.CreateUserAttribute(kind, args[2]); err != nil {
		return fail(out, err)
	}
	return Success
}

func userAttributeRemoveCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 2 {
		return NeedMoreArgs
	}
	if err := d.tree.RemoveUserAttribute(args[1]); err != nil {
		return fail(out, err)
	}
	return Success
}

// callCmd runs an action: call PATH [ARGS...]
func callCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 2 {
		return NeedMoreArgs
	}
	act, err := d.tree.ResolveAction(args[1])
	if err != nil {
		return fail(out, err)
	}
	if err := act.Run(args[2:], out); err != nil {
		return fail(out, err)
	}
	return Success
}
