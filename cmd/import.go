package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var importForced bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import venue master data into the geo index",
	Long:  "Loads every venue's position and footprint from the master database. Skipped when the index already matches the master unless --force is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if !importForced {
			cached, err := env.Service.FullyCached(ctx)
			if err != nil {
				return err
			}
			if cached {
				fmt.Println("Venue index already matches the master database; use --force to re-import.")
				return nil
			}
		}

		written, err := env.Service.ImportVenues(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d venue(s).\n", written)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show venue cache coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		cached, err := env.Service.FullyCached(ctx)
		if err != nil {
			return err
		}

		fmt.Println("=== Venue Cache Status ===")
		if cached {
			fmt.Println("Fully cached: yes")
		} else {
			fmt.Println("Fully cached: no (run `geocache import`)")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importForced, "force", false, "re-import even when the index matches the master")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
}
