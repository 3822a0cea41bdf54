// Package command implements the text command surface of the registry.
// Every command takes an argument vector and returns a status code, writing
// its result or diagnostics to an output stream.
package command

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/agentic-research/objtree/internal/object"
)

// Status is the exit code of a command.
type Status int

const (
	Success         Status = 0
	UnknownError    Status = 1
	CommandNotFound Status = 2
	InvalidArgument Status = 3
	Forbidden       Status = 4
	NeedMoreArgs    Status = 5
)

// False is returned by predicates such as compare when the relation does
// not hold.
const False = UnknownError

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case UnknownError:
		return "unknown-error"
	case CommandNotFound:
		return "command-not-found"
	case InvalidArgument:
		return "invalid-argument"
	case Forbidden:
		return "forbidden"
	case NeedMoreArgs:
		return "need-more-args"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	ErrCommandNotFound     = errors.New("command not found")
	ErrTooFewArguments     = errors.New("too few arguments")
	ErrUnknownOperator     = errors.New("invalid operator")
	ErrUnknownFormatEscape = errors.New("unknown format specifier")
	// ErrInternal marks failures that are not the caller's fault.
	ErrInternal = errors.New("internal error")
)

// StatusOf maps an error to the status a command reports for it.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrTooFewArguments):
		return NeedMoreArgs
	case errors.Is(err, ErrCommandNotFound):
		return CommandNotFound
	case errors.Is(err, ErrInternal):
		return UnknownError
	case errors.Is(err, object.ErrReservedPrefix):
		return InvalidArgument
	case errors.Is(err, object.ErrReadOnly),
		errors.Is(err, object.ErrForbidden),
		errors.Is(err, object.ErrDuplicateName):
		return Forbidden
	default:
		return InvalidArgument
	}
}

// Func implements one command. args[0] is the command name.
type Func func(d *Dispatcher, args []string, out io.Writer) Status

// Dispatcher maps command names to implementations and runs them against
// one registry. It is not safe for concurrent use; callers serialize.
type Dispatcher struct {
	tree     *object.Tree
	commands map[string]Func
	logger   *log.Logger
}

// New creates a dispatcher with the built-in commands registered.
func New(tree *object.Tree, logger *log.Logger) *Dispatcher {
	d := &Dispatcher{
		tree:     tree,
		commands: make(map[string]Func),
		logger:   logger,
	}
	for name, fn := range builtins() {
		d.commands[name] = fn
	}
	return d
}

func (d *Dispatcher) Tree() *object.Tree { return d.tree }

// Register adds a command. Names are unique.
func (d *Dispatcher) Register(name string, fn Func) error {
	if _, ok := d.commands[name]; ok {
		return fmt.Errorf("%w: command %q", object.ErrDuplicateName, name)
	}
	d.commands[name] = fn
	return nil
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs one command to completion.
func (d *Dispatcher) Call(args []string, out io.Writer) (status Status) {
	if len(args) == 0 {
		return NeedMoreArgs
	}
	fn, ok := d.commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(out, "Error: Command %q not found\n", args[0])
		return CommandNotFound
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command panicked", "args", args, "panic", r)
			_, _ = fmt.Fprintf(out, "%s: internal error\n", args[0])
			status = UnknownError
		}
	}()
	status = fn(d, slices.Clone(args), out)
	d.logger.Debug("command", "args", args, "status", status)
	return status
}

// fail prints err and returns the matching status.
func fail(out io.Writer, err error) Status {
	_, _ = fmt.Fprintln(out, err.Error())
	return StatusOf(err)
}

// callSubstitute replaces every argument equal to ident and runs the
// result as a command.
func (d *Dispatcher) callSubstitute(ident, replacement string, args []string, out io.Writer) Status {
	cmd := make([]string, len(args))
	for i, a := range args {
		if a == ident {
			a = replacement
		}
		cmd[i] = a
	}
	return d.Call(cmd, out)
}
