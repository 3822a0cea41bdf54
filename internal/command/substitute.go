package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/objtree/internal/object"
)

const formatChar = '%'

// substituteCmd: substitute IDENT ATTRIBUTE COMMAND [ARGS...]
func substituteCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 4 {
		return NeedMoreArgs
	}
	a, err := d.tree.ResolveAttribute(args[2])
	if err != nil {
		return fail(out, err)
	}
	return d.callSubstitute(args[1], a.String(), args[3:], out)
}

// sprintfCmd: sprintf IDENT FORMAT [ATTRIBUTES...] COMMAND [ARGS...]
//
// Each %s consumes the next attribute path; whatever is left after the
// consumed paths is the command.
func sprintfCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 4 {
		return NeedMoreArgs
	}
	ident, format, rest := args[1], args[2], args[3:]
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		if format[i] != formatChar {
			b.WriteByte(format[i])
			continue
		}
		spec := byte('?')
		if i+1 < len(format) {
			spec = format[i+1]
		}
		switch spec {
		case formatChar:
			b.WriteByte(formatChar)
		case 's':
			if next >= len(rest)-1 {
				return fail(out, fmt.Errorf("%w: parameter %d is missing (treating %q as the command to execute)",
					ErrTooFewArguments, next+1, rest[len(rest)-1]))
			}
			a, err := d.tree.ResolveAttribute(rest[next])
			if err != nil {
				return fail(out, err)
			}
			b.WriteString(a.String())
			next++
		default:
			return fail(out, fmt.Errorf("%w '%c' in format %q at position %d",
				ErrUnknownFormatEscape, spec, format, i))
		}
		i++
	}
	return d.callSubstitute(ident, b.String(), rest[next:], out)
}

// mktempCmd: mktemp TYPE IDENT COMMAND [ARGS...]
//
// Creates a scratch attribute, runs the command with IDENT replaced by its
// path and removes the attribute afterwards.
func mktempCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 4 {
		return NeedMoreArgs
	}
	kind, err := object.ParseKind(args[1])
	if err != nil {
		return fail(out, err)
	}
	status := Success
	err = d.tree.WithTemporary(kind, func(path string) error {
		status = d.callSubstitute(args[2], path, args[3:], out)
		return nil
	})
	if err != nil {
		return fail(out, err)
	}
	return status
}
