package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoppz/geocache/internal/config"
	"github.com/hoppz/geocache/internal/db"
	"github.com/hoppz/geocache/internal/geocache"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/notify"
	"github.com/hoppz/geocache/internal/venues"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geocache",
	Short: "Geospatial proximity cache with check-in detection",
	Long:  "Tracks live user and venue positions in a geo index, answers nearest-neighbor queries, and fires check-in prompts when a user is inside a venue.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// env bundles the wired service with everything it needs closed on exit.
type env struct {
	Service *geocache.Service
	pool    interface{ Close() }
}

func (e *env) Close() {
	if e.Service != nil {
		_ = e.Service.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// initService wires the Redis geo store, the venue master database, and the
// notification webhook into a Service.
func initService(ctx context.Context) (*env, error) {
	store, err := geostore.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	pool, err := db.Open(ctx, cfg.Master.DatabaseURL, &cfg.Master.Pool)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := geocache.New(
		store,
		venues.NewPostgresStore(pool),
		notify.NewWebhookNotifier(cfg.Notify),
		geocache.Options{
			CheckInRadius:   geostore.ByRadius(cfg.Cache.CheckInRadiusM, "m"),
			DefaultGeometry: geostore.ByBox(cfg.Cache.DefaultFootprintM, cfg.Cache.DefaultFootprintM, "m"),
			UserSearch:      geostore.ByRadius(cfg.Cache.UserSearchRadiusKM, "km"),
			NotifRadius:     geostore.ByRadius(cfg.Cache.NotifRadiusKM, "km"),
			FreshnessWindow: cfg.Cache.FreshnessWindow,
			ConflictWindow:  cfg.Cache.ConflictWindow,
			DirectoryTTL:    cfg.Cache.VenueDirectoryTTL,
		},
	)
	return &env{Service: svc, pool: pool}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
