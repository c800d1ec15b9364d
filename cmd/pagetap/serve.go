package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagetap/pagetap/internal/config"
	"github.com/pagetap/pagetap/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		url  string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose recording controls over HTTP",
		Long: `Opens a browser page and serves start/status/ready/stop endpoints plus
a WebSocket event stream, so a remote host driver controls the
recording lifecycle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg, url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page to open before serving")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, url string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, closePage, err := openPage(ctx, cfg, url)
	if err != nil {
		return err
	}
	defer closePage()

	srv := server.New(page, cfg.Recording)
	if nav, ok := page.(navigator); ok {
		nav.OnNavigated(func() {
			srv.Session().ResumeOnNewPage(context.Background())
		})
	}

	return srv.Run(ctx, cfg.Server.Addr)
}
