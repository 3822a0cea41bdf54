package command

import (
	"fmt"
	"io"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/objtree/internal/object"
)

// queryCmd: query JSONPATH [NODE]
//
// Evaluates a JSONPath expression against a snapshot of NODE (the root by
// default) and prints every match as JSON, one per line.
func queryCmd(d *Dispatcher, args []string, out io.Writer) Status {
	if len(args) < 2 {
		return NeedMoreArgs
	}
	x, err := jp.ParseString(args[1])
	if err != nil {
		return fail(out, fmt.Errorf("invalid JSONPath %q: %w", args[1], err))
	}
	path := ""
	if len(args) >= 3 {
		path = args[2]
	}
	node, err := d.tree.ResolveNode(path)
	if err != nil {
		return fail(out, err)
	}
	results := x.Get(object.Snapshot(node))
	if len(results) == 0 {
		return False
	}
	for _, r := range results {
		_, _ = fmt.Fprintln(out, oj.JSON(r, &oj.Options{Sort: true}))
	}
	return Success
}
