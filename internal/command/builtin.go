package command

import (
	"fmt"
	"io"
	"strings"
)

func builtins() map[string]Func {
	return map[string]Func{
		"get":                  getCmd,
		"set":                  setCmd,
		"attr":                 attrCmd,
		"print_tree":           printTreeCmd,
		"userattribute":        userAttributeCmd,
		"userattribute_remove": userAttributeRemoveCmd,
		"call":                 callCmd,
		"substitute":           substituteCmd,
		"sprintf":              sprintfCmd,
		"mktemp":               mktempCmd,
		"compare":              compareCmd,
		"query":                queryCmd,
		"echo":                 echoCmd,
		"true":                 func(*Dispatcher, []string, io.Writer) Status { return Success },
		"false":                func(*Dispatcher, []string, io.Writer) Status { return False },
		"list_commands":        listCommandsCmd,
		"help":                 helpCmd,
	}
}

func echoCmd(_ *Dispatcher, args []string, out io.Writer) Status {
	_, _ = fmt.Fprintln(out, strings.Join(args[1:], " "))
	return Success
}

func listCommandsCmd(d *Dispatcher, _ []string, out io.Writer) Status {
	for _, name := range d.Commands() {
		_, _ = fmt.Fprintln(out, name)
	}
	return Success
}
