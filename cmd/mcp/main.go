// mcp runs a batch of commands under a round-robin time-slicing scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/me/mcp/internal/cli"
	"github.com/me/mcp/internal/launcher"
)

func main() {
	// Children re-execute this binary as a gate; it never returns for them.
	launcher.MaybeRunGate()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
