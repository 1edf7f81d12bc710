package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the periodic token refresh loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.scheduler.Start(ctx)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "watching, press Ctrl+C to stop")

			<-ctx.Done()
			app.scheduler.Stop()
			app.queue.Flush()

			return nil
		},
	}
}
