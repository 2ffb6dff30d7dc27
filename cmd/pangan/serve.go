package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pasar-banyumas/pangan-forecaster/viewer"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the saved forecasts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Viewer.Addr
			}
			cal, err := newCalendar()
			if err != nil {
				return err
			}
			srv := viewer.New(cfg, cal)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				slog.Info("shutting down viewer")
				if err := srv.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return <-errCh
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to viewer.addr")
	return cmd
}
