package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hoppz/geocache/internal/proximity"
)

// parseEntity parses "user:<id>" or "venue:<id>".
func parseEntity(arg string) (proximity.Entity, error) {
	kind, id, ok := strings.Cut(arg, ":")
	if !ok || id == "" {
		return proximity.Entity{}, eris.Errorf("distance: expected user:<id> or venue:<id>, got %q", arg)
	}
	switch kind {
	case "user":
		return proximity.UserEntity(id), nil
	case "venue":
		return proximity.VenueEntity(id), nil
	default:
		return proximity.Entity{}, eris.Errorf("distance: unknown entity kind %q", kind)
	}
}

var distanceCmd = &cobra.Command{
	Use:   "distance <user:id|venue:id> <user:id|venue:id>",
	Short: "Great-circle distance between two entities in km",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := parseEntity(args[0])
		if err != nil {
			return err
		}
		b, err := parseEntity(args[1])
		if err != nil {
			return err
		}

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		km, ok, err := env.Service.Queries().DistanceBetween(ctx, a, b)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("One or both entities have no recorded position.")
			return nil
		}
		fmt.Printf("%.3f km\n", km)
		return nil
	},
}

func init() { rootCmd.AddCommand(distanceCmd) }
