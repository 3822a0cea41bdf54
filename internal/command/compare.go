package command

import (
	"cmp"
	"fmt"
	"io"
	"strconv"

	"github.com/agentic-research/objtree/internal/object"
)

var orderOps = map[string]func(c int) bool{
	"=":  func(c int) bool { return c == 0 },
	"!=": func(c int) bool { return c != 0 },
	"le": func(c int) bool { return c <= 0 },
	"lt": func(c int) bool { return c < 0 },
	"ge": func(c int) bool { return c >= 0 },
	"gt": func(c int) bool { return c > 0 },
}

// compareCmd: compare ATTRIBUTE OPERATOR CONSTANT
//
// Returns Success when the relation holds and False when it does not.
func compareCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 4 {
		return NeedMoreArgs
	}
	a, err := d.tree.ResolveAttribute(args[1])
	if err != nil {
		return fail(out, err)
	}
	op, rvalue := args[2], args[3]

	var c int
	var ops map[string]func(int) bool
	switch v := a.Value().(type) {
	case object.IntValue, object.UintValue:
		r, err := strconv.ParseInt(rvalue, 10, 64)
		if err != nil {
			return fail(out, &object.ParseError{Kind: object.KindInt, Input: rvalue})
		}
		c = compareInt(v, r)
		ops = orderOps
	case object.BoolValue:
		r, err := object.ParseBool(rvalue, bool(v))
		if err != nil {
			return fail(out, &object.ParseError{Kind: object.KindBool, Input: rvalue})
		}
		c = equality(bool(v) == r)
		ops = equalityOps
	case object.ColorValue:
		r, err := object.ParseColor(rvalue)
		if err != nil {
			return fail(out, &object.ParseError{Kind: object.KindColor, Input: rvalue, Err: err})
		}
		c = equality(v.SameColor(r))
		ops = equalityOps
	default:
		c = equality(v.String() == rvalue)
		ops = equalityOps
	}

	eval, ok := ops[op]
	if !ok {
		return fail(out, fmt.Errorf("%w %q for %s attributes", ErrUnknownOperator, op, a.Kind()))
	}
	if eval(c) {
		return Success
	}
	return False
}

var equalityOps = map[string]func(int) bool{
	"=":  orderOps["="],
	"!=": orderOps["!="],
}

func equality(same bool) int {
	if same {
		return 0
	}
	return 1
}

func compareInt(l object.Value, r int64) int {
	switch l := l.(type) {
	case object.IntValue:
		return cmp.Compare(int64(l), r)
	case object.UintValue:
		if r < 0 {
			return 1
		}
		return cmp.Compare(uint64(l), uint64(r))
	}
	return 0
}
