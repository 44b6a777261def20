// Command sentrywatch is the CLI entry point: enable Windows virtual
// terminal sequences, then hand off to the cobra command tree.
package main

import (
	"fmt"
	"os"

	"github.com/sentrywatch/sentrywatch/cmd"
	"github.com/sentrywatch/sentrywatch/internal/terminal"
)

func main() {
	terminal.EnableVirtualTerminal()

	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
