// Command formdb brings the form builder's MongoDB to a ready state.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/formdb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Command failures are already reported by the output formatter.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
