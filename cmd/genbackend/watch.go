package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stuartcarnie/genbackend"
)

var (
	watchOpt = struct {
		Settle time.Duration
	}{}

	watchCmd = cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever the descriptor inputs change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigs)
			go func() {
				select {
				case sig := <-sigs:
					zap.L().Info("Received signal to stop watching", zap.Stringer("signal", sig))
					cancel()
				case <-ctx.Done():
				}
			}()

			return r.Watch(ctx, watchOpt.Settle)
		},
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchOpt.Settle, "settle", genbackend.DefaultSettle, "Time inputs must be quiet before regenerating")
}
