package main

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/snapreel/cmd/snapreel/commands"
	"github.com/bryanchriswhite/snapreel/internal/errs"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errs.ExitCode(err))
	}
}
