package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/shivanshkc/dagbench/pkg/store"
	"github.com/shivanshkc/dagbench/pkg/streams"
	"github.com/shivanshkc/dagbench/pkg/utils/miscutils"
)

// watchEmitOnly holds the value of the --emit-only flag.
var watchEmitOnly bool

// watchCmd represents the `watch` command. It subscribes to the store's live
// event stream and prints every record as it arrives, until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the store's live event stream.",
	Long:  "Subscribes to the store's event stream and prints every record as it arrives, until Ctrl+C.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if message := validateRootFlags(rootConfig); message != "" {
			return errors.New(message)
		}

		client := store.NewClient(rootConfig.Store.BaseURL, rootConfig.Store.Timeout)
		return watch(cmd.Context(), client, cmd.OutOrStdout(), watchEmitOnly)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchEmitOnly, "emit-only", false, "Print emit records only.")
}

// subscriber opens the event stream.
type subscriber interface {
	Subscribe(ctx context.Context) (*streams.Stream[store.StreamEvent], error)
}

// watch prints records from the subscription to out until ctx is canceled or the stream breaks.
func watch(ctx context.Context, client subscriber, out io.Writer, emitOnly bool) error {
	stream, err := client.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if emitOnly {
		stream = streams.Filter(stream, func(event store.StreamEvent) bool {
			return event.Err != nil || event.IsEmit()
		})
	}

	start := time.Now()
	var received, emits int
	defer func() {
		_, _ = fmt.Fprintln(out, text.Faint.Sprintf("received %d records, %d emits", received, emits))
	}()

	for {
		event, ok, err := stream.NextContext(ctx)
		if err != nil || !ok {
			// Canceled by the user, or the server closed the stream.
			return nil
		}

		if event.Err != nil {
			if errors.Is(event.Err, context.Canceled) {
				return nil
			}
			_, _ = fmt.Fprintln(out, text.FgRed.Sprint("stream broken: ", event.Err))
			return fmt.Errorf("event stream broken: %w", event.Err)
		}

		received++
		color := text.FgBlue
		if event.IsEmit() {
			emits++
			color = text.FgGreen
		}

		_, _ = fmt.Fprintf(out, "%s %s %s\n",
			text.Faint.Sprint("+"+miscutils.FormatDuration(event.Received.Sub(start))),
			color.Sprint(event.Type),
			event.Data)
	}
}
