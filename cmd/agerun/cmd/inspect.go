package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/agerun/agerun/internal/valuejson"
)

var inspectQuery string

var inspectCmd = &cobra.Command{
	Use:   "inspect <agent-id>",
	Short: "Export an agent's memory as JSON, optionally querying it",
	Long: `Prints the agent's memory tree as JSON. With --query, the
path is evaluated against that JSON with gjson and only the matched
value is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectQuery, "query", "", "gjson path to extract from the agent's memory")
}

func runInspect(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", args[0], err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	a := rt.Agent(id)
	if a.Method == nil {
		return fmt.Errorf("no such agent %d", id)
	}

	data, err := valuejson.Marshal(a.Memory)
	if err != nil {
		return fmt.Errorf("exporting agent %d memory: %w", id, err)
	}

	out := cmd.OutOrStdout()
	if inspectQuery == "" {
		fmt.Fprintln(out, string(data))
		return nil
	}

	result := gjson.GetBytes(data, inspectQuery)
	if !result.Exists() {
		return fmt.Errorf("query %q matched nothing in agent %d's memory", inspectQuery, id)
	}
	fmt.Fprintln(out, result.Raw)
	return nil
}
