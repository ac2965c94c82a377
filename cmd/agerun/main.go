// Command agerun is the CLI front end for the agent runtime: it loads
// a persisted methodology/agency directory, lets the operator register
// methods, spawn and message agents, drain the dispatch queue, and save
// the result back out.
package main

import (
	"fmt"
	"os"

	"github.com/agerun/agerun/cmd/agerun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
