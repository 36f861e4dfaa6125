package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/store"
	"github.com/aryanshah2441/social-distancing-index/internal/tile"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tile and profile HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/encode", handleEncode)
	r.Get("/api/tiles/{id}", handleTile)

	r.Route("/api/cities/{city}", func(r chi.Router) {
		r.Get("/dates", handleDates(st))
		r.Get("/profiles/{date}", handleProfile(st))
		r.Get("/tiles/{id}", handleSeries(st))
	})

	return r
}

// tileResponse describes one tile cell.
type tileResponse struct {
	TileID   string          `json:"tile_id"`
	Level    int             `json:"level"`
	BBox     [4]float64      `json:"bbox"` // min lon, min lat, max lon, max lat
	Centroid [2]float64      `json:"centroid"`
	Geometry json.RawMessage `json:"geometry"`
}

func describeTile(id string) (tileResponse, error) {
	bbox, err := tile.DecodeBBox(id)
	if err != nil {
		return tileResponse{}, err
	}
	center, err := tile.DecodeCentroid(id)
	if err != nil {
		return tileResponse{}, err
	}
	geometry, err := geojson.Marshal(bbox.Polygon())
	if err != nil {
		return tileResponse{}, eris.Wrap(err, "marshal tile geometry")
	}
	return tileResponse{
		TileID:   id,
		Level:    len(id) - 4,
		BBox:     [4]float64{bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat},
		Centroid: [2]float64{center.Lon, center.Lat},
		Geometry: geometry,
	}, nil
}

func handleEncode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return
	}
	level := 0
	if raw := q.Get("level"); raw != "" {
		level, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "level must be an integer")
			return
		}
	}

	id, err := tile.Encode(lat, lon, level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := describeTile(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleTile(w http.ResponseWriter, r *http.Request) {
	resp, err := describeTile(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleDates(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := st.ListDates(r.Context(), chi.URLParam(r, "city"))
		if err != nil {
			zap.L().Error("list dates failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		out := make([]string, 0, len(dates))
		for _, date := range dates {
			out = append(out, date.Format("2006-01-02"))
		}
		writeJSON(w, http.StatusOK, map[string]any{"dates": out})
	}
}

func handleProfile(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be yyyy-mm-dd")
			return
		}

		profile, err := st.GetProfile(r.Context(), chi.URLParam(r, "city"), date)
		if err != nil {
			zap.L().Error("get profile failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if profile == nil {
			writeError(w, http.StatusNotFound, "no profile for that city and date")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handleSeries(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := tile.DecodeBBox(id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		series, err := st.TileSeries(r.Context(), chi.URLParam(r, "city"), id)
		if err != nil {
			zap.L().Error("tile series failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if len(series) == 0 {
			writeError(w, http.StatusNotFound, "no stored data for that tile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tile_id": id, "series": series})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
