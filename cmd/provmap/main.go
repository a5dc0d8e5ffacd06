// Command provmap registers code object provenance manifests and answers
// lookups, dumps and event-log exports over them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/provmap/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
