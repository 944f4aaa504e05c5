package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <user-id> <venue-id>",
	Short: "Record a user's check-in selection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.ResolveCheckIn(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("User %s checked into %s.\n", args[0], args[1])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <user-id>",
	Short: "Clear a user's conflict record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.ClearConflict(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Conflict record for %s cleared.\n", args[0])
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge <user-id>",
	Short: "Evict everything the cache holds about a user",
	Long:  "Removes the user's position, last-updated stamp, and conflict record. Retention is operator-driven; nothing expires positions in the background.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.PurgeUser(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("User %s purged.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(purgeCmd)
}
