package main

import "github.com/agentic-research/objtree/cmd"

func main() {
	cmd.Execute()
}
