package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagetap/pagetap/internal/config"
	"github.com/pagetap/pagetap/internal/recording"
	"github.com/pagetap/pagetap/internal/store"
)

func recordCmd() *cobra.Command {
	var (
		url      string
		duration time.Duration
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a browsing session to disk",
		Long: `Opens the target page, starts recording, and persists captured events
as JSON chunk files. Recording runs for --duration, or until Ctrl+C
when no duration is given. Navigations within the tab are followed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Store.OutputDir = outDir
			}
			return runRecord(cmd.Context(), cfg, url, duration)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page to open and record (required)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "how long to record (0 = until interrupted)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory override")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runRecord(ctx context.Context, cfg config.Config, url string, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, closePage, err := openPage(ctx, cfg, url)
	if err != nil {
		return err
	}
	defer closePage()

	sink, err := store.NewChunkWriter(cfg.Store.OutputDir)
	if err != nil {
		return err
	}

	index, err := store.OpenSessionIndex(cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer index.Close()

	sessionID, err := index.Begin(ctx, url, sink.Dir())
	if err != nil {
		return err
	}

	session := recording.NewSession(page, cfg.Recording, sink)
	if nav, ok := page.(navigator); ok {
		nav.OnNavigated(func() {
			session.ResumeOnNewPage(context.Background())
		})
	}

	if _, err := session.Start(ctx); err != nil {
		return err
	}
	slog.Info("recording", "url", url, "session", sessionID, "dir", sink.Dir())

	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	// The signal context is done by now; stop with a fresh one.
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := session.Stop(stopCtx); err != nil {
		return err
	}
	if err := index.Finish(stopCtx, sessionID, sink.EventCount(), sink.FileCount()); err != nil {
		slog.Warn("session index update failed", "err", err)
	}

	fmt.Printf("Recording stopped. Captured %d events in %d file(s).\nSaved to: %s\n",
		sink.EventCount(), sink.FileCount(), sink.Dir())
	return nil
}
