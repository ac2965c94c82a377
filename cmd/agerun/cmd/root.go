package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agerun/agerun/pkg/agerun"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	dir     string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agerun",
	Short: "agerun actor runtime",
	Long: `agerun is a message-passing actor runtime: methods are small
instruction-language programs, agents are running instances of a
method with their own memory, and messages dispatch strictly in
ascending agent-id order.

Each subcommand operates against a persistence directory (--dir)
holding methodology.agerun and agency.agerun; state is loaded at the
start of a command and saved at the end unless the command is purely
read-only.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "persistence directory holding methodology.agerun and agency.agerun")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// openRuntime loads a Runtime from --dir, reporting a missing
// directory as empty state rather than an error (matches
// internal/persist's "never seen before" semantics).
func openRuntime() (*agerun.Runtime, error) {
	r := agerun.New(agerun.WithDir(dir))
	if err := r.Load(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	return r, nil
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
