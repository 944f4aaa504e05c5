package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var insideWindow time.Duration

var insideCmd = &cobra.Command{
	Use:   "inside <venue-id>",
	Short: "Users checked into a venue",
	Long:  "Lists users inside a venue's footprint whose presence is fresh and whose resolved check-in names this venue.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		users, err := env.Service.Queries().UsersInsideVenue(ctx, args[0], insideWindow)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users inside.")
			return nil
		}
		for _, id := range users {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

var nearCmd = &cobra.Command{
	Use:   "near <venue-id>",
	Short: "Users within a venue's notification fan-out radius",
	Long:  "Wider-radius list for venue-is-near-you alerts; not filtered by check-in state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		users, ok, err := env.Service.Queries().UsersNearVenue(ctx, args[0], nil)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("Venue %s has no recorded position.\n", args[0])
			return nil
		}
		for _, id := range users {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

func init() {
	insideCmd.Flags().DurationVar(&insideWindow, "window", 0, "presence freshness window (default from config)")
	rootCmd.AddCommand(insideCmd)
	rootCmd.AddCommand(nearCmd)
}
