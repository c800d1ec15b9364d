package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagetap/pagetap/internal/config"
	"github.com/pagetap/pagetap/internal/store"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			index, err := store.OpenSessionIndex(cfg.Store.DBPath)
			if err != nil {
				return err
			}
			defer index.Close()

			records, err := index.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No recorded sessions.")
				return nil
			}

			for _, rec := range records {
				status := "recording"
				if rec.StoppedAt != nil {
					status = rec.StoppedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%s  %-40s  %6d events  %3d file(s)  stopped: %s\n",
					rec.StartedAt.Format("2006-01-02 15:04:05"), rec.PageURL, rec.Events, rec.Files, status)
			}
			return nil
		},
	}
}
