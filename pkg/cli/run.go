package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/bootstrap"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/fullclient"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the full node and run until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := chainSpecFlag(cmd)
			if err != nil {
				return err
			}
			basePath, err := basePathFlag(cmd)
			if err != nil {
				return err
			}

			env := bootstrap.Default.Ensure(spec)
			defer env.Panics.Recover()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := fullclient.CreateFullClient(ctx, spec, basePath)
			if err != nil {
				return err
			}

			<-ctx.Done()
			env.Logger.ComponentInfo(logging.ComponentNode, "Shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := svc.Stop(shutdownCtx); err != nil {
				if errors.IsTimeout(err) {
					env.Logger.ComponentWarn(logging.ComponentNode, "Shutdown timed out, exiting anyway",
						zap.Duration("timeout", shutdownTimeout), zap.Error(err))
				} else {
					env.Logger.ComponentError(logging.ComponentNode, "Node did not stop cleanly", zap.Error(err))
				}
				return err
			}
			return nil
		},
	}
}
