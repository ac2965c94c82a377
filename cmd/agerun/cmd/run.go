package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runSteps int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drain pending agent messages",
	Long: `Load the persistence directory, dispatch pending messages in
ascending agent-id order until the system is quiescent (or --steps
messages have been processed, if given), then save the result.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runSteps, "steps", 0, "process at most this many messages (0 = drain fully)")
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}

	processed := 0
	if runSteps > 0 {
		for processed < runSteps && rt.ProcessNextMessage() {
			processed++
		}
	} else {
		processed = rt.ProcessAllMessages()
	}

	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d message(s)\n", processed)
	}

	return rt.Save()
}
