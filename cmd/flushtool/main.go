// Command flushtool is a development CLI that replays fixture memtables
// through the flush engine and reports the resulting throughput, useful
// for exercising the engine outside of the test suite.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flushtool",
		Short: "Replay fixture memtables through the flush engine",
	}
	root.AddCommand(newReplayCmd())
	return root
}
