// Command gonuget-resolve scans a single project and prints its resolved
// transitive dependency tree as JSON (§6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor().Sprint(err))
		os.Exit(1)
	}
}
