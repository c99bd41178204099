package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/internal/logger"
	"github.com/shivanshkc/dagbench/internal/scenario"
	"github.com/shivanshkc/dagbench/pkg/store"
)

// scenarioCmd runs one of the built-in workloads and prints its report.
var scenarioCmd = &cobra.Command{
	Use:   "scenario <" + strings.Join(kindNames(), "|") + ">",
	Short: "Run a load scenario against the event store.",
	Long: `Run a load scenario against the event store and print what was measured.

  emit         write throughput, growing the graph in the --parents-mode shape
  read         one read operation (--read-op) over IDs found from the heads
  mixed        writes and reads interleaved by --write-ratio, for --duration
  descendants  build a subtree of --build-n events, then query its descendants
  sse          hold --subs subscriptions open while emitting at --emit-rate

Ctrl+C ends the run early and still prints the report.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := scenario.ParseKind(args[0])
		if err != nil {
			return err
		}

		if message := validateScenarioFlags(kind, rootConfig); message != "" {
			return errors.New(message)
		}

		client := store.NewClient(rootConfig.Store.BaseURL, rootConfig.Store.Timeout)
		runner := scenario.NewRunner(client, rootConfig)
		cliLogger := logger.Get("cli")
		cliLogger.Info().Str("run", runner.RunID()).Msg("emitted events carry this id in meta.run")

		report, err := runner.Run(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", kind, err)
		}

		return report.Render(cmd.OutOrStdout(), rootConfig.Output.Format)
	},
}

func init() {
	rootCmd.AddCommand(scenarioCmd)

	flags := scenarioCmd.Flags()

	flags.IntP("concurrency", "c", config.DefaultConcurrency, "Maximum requests in flight.")
	flags.IntP("count", "n", config.DefaultCount, "Number of requests, when no duration is given.")
	flags.DurationP("duration", "d", 0,
		"Run for this long instead of a fixed count. mixed, descendants and sse default to 10s.")

	flags.String("type", config.DefaultEventType, "Type of the emitted events.")
	flags.Int("payload-bytes", config.DefaultPayloadBytes, "Approximate payload size of emitted events.")
	flags.String("parents-mode", config.DefaultParentsMode, "Parent selection: chain, fork, merge or random.")
	flags.Int("parents-k", config.DefaultParentsK, "Parents per emitted event.")

	flags.String("read-op", config.DefaultReadOp, "read: event, children, heads or descendants.")
	flags.Int("warm-depth", config.DefaultWarmDepth, "read: rounds of children expansion before the run (max 5).")
	flags.StringSlice("read-ops", config.DefaultReadOps, "mixed: read operations to pick from.")
	flags.Float64("write-ratio", config.DefaultWriteRatio, "mixed: probability of a write.")

	flags.Int("build-n", config.DefaultBuildN, "descendants: events emitted to build the subtree.")
	flags.Int("build-concurrency", config.DefaultBuildConcurrency, "descendants: concurrency of the build.")

	flags.Int("subs", config.DefaultSubs, "sse: concurrent subscriptions.")
	flags.Float64("emit-rate", config.DefaultEmitRate, "sse: emits per second.")
	flags.Duration("settle-delay", config.DefaultSettleDelay, "sse: wait for subscriptions before emitting.")

	flags.String("format", scenario.FormatText, "Report format: text or table.")
}

func kindNames() []string {
	kinds := scenario.Kinds()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = kind.String()
	}
	return names
}
