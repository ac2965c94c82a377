package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/agerun/agerun/internal/value"
	"github.com/agerun/agerun/internal/valuejson"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect and manage live agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live agent ids and their current method",
	RunE:  runAgentsList,
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <method-name> [version] [context]",
	Short: "Spawn an agent running the named method",
	Long: `version defaults to the latest registered version when
omitted or "". context, if given, is parsed as JSON the same way
send's message argument is; it defaults to an empty Map.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runAgentsCreate,
}

var agentsSendCmd = &cobra.Command{
	Use:   "send <agent-id> <message>",
	Short: "Send a message to an agent",
	Long: `message is parsed as JSON when valid (so numbers, maps, and
lists can be sent); otherwise it is sent verbatim as a String.`,
	Args: cobra.ExactArgs(2),
	RunE: runAgentsSend,
}

var agentsDestroyCmd = &cobra.Command{
	Use:   "destroy <agent-id>",
	Short: "Destroy an agent, dropping any queued messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsDestroy,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsCreateCmd)
	agentsCmd.AddCommand(agentsSendCmd)
	agentsCmd.AddCommand(agentsDestroyCmd)
}

func runAgentsCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	version := ""
	if len(args) >= 2 {
		version = args[1]
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}

	var context *value.Value
	if len(args) == 3 {
		context = parseMessageArg(args[2])
		if !context.IsMap() {
			return fmt.Errorf("context must be a JSON object, got %q", args[2])
		}
	}

	id := rt.CreateAgent(name, version, context)
	if id == 0 {
		return fmt.Errorf("no such method %s %s", name, version)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return rt.Save()
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}

	ids := rt.Agents()
	labels := make([]string, len(ids))
	for i, id := range ids {
		a := rt.Agent(id)
		labels[i] = fmt.Sprintf("%d\t%s %s\tqueue=%d", a.ID, a.Method.Name(), a.Method.Version(), a.QueueLen)
	}
	col := collate.New(language.Und)
	col.SortStrings(labels)

	out := cmd.OutOrStdout()
	for _, l := range labels {
		fmt.Fprintln(out, l)
	}
	return nil
}

func parseMessageArg(raw string) *value.Value {
	if v, err := valuejson.Unmarshal([]byte(raw)); err == nil {
		return v
	}
	return value.NewString(raw)
}

func runAgentsSend(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", args[0], err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	if !rt.Send(id, parseMessageArg(args[1])) {
		return fmt.Errorf("no such agent %d", id)
	}
	return rt.Save()
}

func runAgentsDestroy(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", args[0], err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	if !rt.DestroyAgent(id) {
		return fmt.Errorf("no such agent %d", id)
	}
	return rt.Save()
}
