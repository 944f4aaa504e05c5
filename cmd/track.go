package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hoppz/geocache/internal/geostore"
)

var trackCmd = &cobra.Command{
	Use:   "track <user-id> <lat> <lng>",
	Short: "Record a user location update",
	Long:  "Writes a user's position into the geo index, stamps the update time, and runs check-in detection.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		userID := args[0]
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrap(err, "track: parse latitude")
		}
		lng, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return eris.Wrap(err, "track: parse longitude")
		}

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		prompt, err := env.Service.SetUserLocation(ctx, userID, geostore.Coordinates{Latitude: lat, Longitude: lng})
		if err != nil {
			return err
		}

		if prompt == nil {
			fmt.Println("Location recorded; no check-in prompt fired.")
			return nil
		}
		fmt.Printf("Location recorded; check-in prompt fired with %d candidate(s):\n", len(prompt.Candidates))
		for _, c := range prompt.Candidates {
			fmt.Printf("  %-20s %s (%s)\n", c.ID, c.Name, c.Address)
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(trackCmd) }
