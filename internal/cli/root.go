// Package cli contains all the command-line interface logic for the application,
// powered by the cobra library. It defines the root command, subcommands,
// and their respective flags.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/internal/logger"
)

var (
	// rootConfigFile is the optional config file given with --config.
	rootConfigFile string

	// rootConfig is resolved before any subcommand runs, from flags, environment and config file.
	rootConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point and parent for all other commands.
var rootCmd = &cobra.Command{
	Use:   "dagbench",
	Short: "A load generator for the DAG event store.",
	Long: `A load generator for the DAG event store.
This CLI provides subcommands to run load scenarios and to watch the live event stream.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), rootConfigFile)
		if err != nil {
			return err
		}
		logger.Setup(cfg.Log.Level, cfg.Log.Format)
		rootConfig = cfg
		return nil
	},
}

// Execute is the primary entry point for the CLI application, called by main.go.
//
// It sets up a single, root cancellable context and wires it up to respond
// to OS interruption signals (like Ctrl+C or SIGTERM). This context is then passed down
// to all cobra commands, so a run stops launching work and reports what completed.
func Execute() error {
	// Create a root context that can be canceled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a channel to listen for specific OS signals.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	// Launch a goroutine to cancel the context upon receiving a signal.
	go func() {
		<-signals
		cancel()
	}()

	// Execute the root command with the cancellable context.
	return rootCmd.ExecuteContext(ctx)
}

// init configures the flags shared by every subcommand.
func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&rootConfigFile, "config", "",
		"Config file (yaml, toml or json). Defaults to ./dagbench.* when present.")

	flags.StringP("base-url", "u", config.DefaultBaseURL, "Base URL of the event store.")
	flags.Duration("timeout", config.DefaultTimeout, "Timeout of every request except subscriptions.")
	flags.Int("health-attempts", config.DefaultHealthAttempts, "Attempts of the health probe before giving up.")
	flags.Duration("health-delay", config.DefaultHealthDelay, "Delay between health probe attempts.")
	flags.String("log-level", "info", "Log level: debug, info, warn, error or off.")
	flags.String("log-format", "console", "Log format: console or json.")
}
