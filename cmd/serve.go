package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoppz/geocache/internal/geocache"
	"github.com/hoppz/geocache/internal/geostore"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface for location updates and proximity reads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Service),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the thin HTTP adapter over the service. The core never
// depends on this layer.
func newRouter(svc *geocache.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/users/{userID}/location", func(w http.ResponseWriter, req *http.Request) {
		var body geostore.Coordinates
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		prompt, err := svc.SetUserLocation(req.Context(), chi.URLParam(req, "userID"), body)
		if err != nil {
			zap.L().Error("serve: location update failed", zap.Error(err))
			http.Error(w, `{"error":"location update failed"}`, http.StatusInternalServerError)
			return
		}

		resp := map[string]any{"prompted": prompt != nil}
		if prompt != nil {
			resp["candidates"] = prompt.Candidates
		}
		writeJSON(w, http.StatusAccepted, resp)
	})

	r.Post("/v1/users/{userID}/resolve", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			VenueID string `json:"venue_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.VenueID == "" {
			http.Error(w, `{"error":"venue_id is required"}`, http.StatusBadRequest)
			return
		}

		if err := svc.ResolveCheckIn(req.Context(), chi.URLParam(req, "userID"), body.VenueID); err != nil {
			zap.L().Warn("serve: resolve failed", zap.Error(err))
			http.Error(w, `{"error":"resolve failed"}`, http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
	})

	r.Get("/v1/users/{userID}/nearby-venues", func(w http.ResponseWriter, req *http.Request) {
		venues, ok, err := svc.Queries().NearestVenues(req.Context(), chi.URLParam(req, "userID"), nil)
		if err != nil {
			zap.L().Error("serve: nearby venues failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, `{"error":"user has no recorded position"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
	})

	r.Get("/v1/users/{userID}/nearby-users", func(w http.ResponseWriter, req *http.Request) {
		users, ok, err := svc.Queries().NearestUsers(req.Context(), chi.URLParam(req, "userID"), nil)
		if err != nil {
			zap.L().Error("serve: nearby users failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, `{"error":"user has no recorded position"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	})

	r.Get("/v1/venues/{venueID}/users", func(w http.ResponseWriter, req *http.Request) {
		users, err := svc.Queries().UsersInsideVenue(req.Context(), chi.URLParam(req, "venueID"), 0)
		if err != nil {
			zap.L().Error("serve: users inside venue failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	})

	r.Get("/v1/venues/{venueID}/nearby-users", func(w http.ResponseWriter, req *http.Request) {
		users, ok, err := svc.Queries().UsersNearVenue(req.Context(), chi.URLParam(req, "venueID"), nil)
		if err != nil {
			zap.L().Error("serve: users near venue failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, `{"error":"venue has no recorded position"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
