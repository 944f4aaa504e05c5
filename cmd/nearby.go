package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoppz/geocache/internal/geostore"
)

var nearbyRadiusKM float64

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Nearest-neighbor queries from a user's position",
}

var nearbyVenuesCmd = &cobra.Command{
	Use:   "venues <user-id>",
	Short: "Venues nearest a user, ascending by distance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		bounds := boundsFlag()
		venues, ok, err := env.Service.Queries().NearestVenues(ctx, args[0], bounds)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("User %s has no recorded position.\n", args[0])
			return nil
		}
		if len(venues) == 0 {
			fmt.Println("No venues in range.")
			return nil
		}
		for _, v := range venues {
			fmt.Printf("  %-20s %.3f km\n", v.ID, v.DistanceKM)
		}
		return nil
	},
}

var nearbyUsersCmd = &cobra.Command{
	Use:   "users <user-id>",
	Short: "Users nearest a user, ascending by distance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		bounds := boundsFlag()
		users, ok, err := env.Service.Queries().NearestUsers(ctx, args[0], bounds)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("User %s has no recorded position.\n", args[0])
			return nil
		}
		for _, id := range users {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

// boundsFlag converts the --radius-km flag into search bounds, or nil for the
// configured default.
func boundsFlag() *geostore.SearchBy {
	if nearbyRadiusKM <= 0 {
		return nil
	}
	b := geostore.ByRadius(nearbyRadiusKM, "km")
	return &b
}

func init() {
	nearbyCmd.PersistentFlags().Float64Var(&nearbyRadiusKM, "radius-km", 0, "search radius in km (default from config)")
	nearbyCmd.AddCommand(nearbyVenuesCmd)
	nearbyCmd.AddCommand(nearbyUsersCmd)
	rootCmd.AddCommand(nearbyCmd)
}
