package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "pagetap",
		Short: "Record browser sessions through an injected DOM-event recorder",
		Long: `pagetap injects the rrweb recorder into live pages, coordinates its
asynchronous load, and persists the captured events on the host side.
Recording survives page navigations within the same tab.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(recordCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(sessionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
