// Package server exposes the latest engine output over a read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
	"github.com/rewired-gh/evoracle/internal/storage"
)

// History looks up stored line movement.
type History interface {
	LineHistory(gameID, market string) ([]storage.LinePoint, error)
}

// Options configures the handler.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// EV is the default band applied by /api/v1/ev; query parameters
	// override it per request.
	EV ev.Options
}

// Handler serves the API.
type Handler struct {
	state   *State
	history History
	opts    Options
}

// NewHandler creates a handler. history may be nil when no database is
// configured.
func NewHandler(state *State, history History, opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	return &Handler{state: state, history: history, opts: opts}
}

// Router builds the chi router with middleware and routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", h.Games)
		r.Get("/games/{id}", h.Game)
		r.Get("/games/{id}/history/{market}", h.LineHistory)
		r.Get("/props", h.Props)
		r.Get("/ev", h.Opportunities)
	})
	return r
}

// HealthCheck returns service health and the current run.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.state.Snapshot()
	resp := map[string]any{
		"status":  "healthy",
		"service": "evoracle",
		"ready":   ok,
	}
	if ok {
		resp["runId"] = h.state.RunID()
		resp["lastUpdated"] = snap.Games.LastUpdated
	}
	respondJSON(w, http.StatusOK, resp)
}

// Games returns the games file, optionally narrowed by ?sport=<sport key>.
func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ready(w)
	if !ok {
		return
	}
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		respondJSON(w, http.StatusOK, snap.Games)
		return
	}
	out := models.GamesFile{LastUpdated: snap.Games.LastUpdated, Games: []models.GameRecord{}}
	for _, g := range snap.Games.Games {
		if g.SportKey == sport {
			out.Games = append(out.Games, g)
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// Game returns one game record.
func (h *Handler) Game(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ready(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	for _, g := range snap.Games.Games {
		if g.ID == id {
			respondJSON(w, http.StatusOK, g)
			return
		}
	}
	respondError(w, http.StatusNotFound, fmt.Sprintf("game %s not found", id))
}

type historyPoint struct {
	Point      *float64  `json:"point"`
	TrueOdds   odds.Pair `json:"trueOdds"`
	MarketOdds odds.Pair `json:"marketOdds"`
	BookCount  int       `json:"bookCount"`
	RecordedAt time.Time `json:"recordedAt"`
}

// LineHistory returns a game market's consensus across stored runs.
func (h *Handler) LineHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotImplemented, "line history requires storage")
		return
	}
	market := chi.URLParam(r, "market")
	switch market {
	case "moneyline", "spreads", "totals":
	default:
		respondError(w, http.StatusBadRequest, "market must be moneyline, spreads or totals")
		return
	}

	points, err := h.history.LineHistory(chi.URLParam(r, "id"), market)
	if err != nil {
		logger.Error("Line history lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	out := make([]historyPoint, 0, len(points))
	for _, p := range points {
		out = append(out, historyPoint{
			Point:      p.Point,
			TrueOdds:   p.TrueOdds,
			MarketOdds: p.MarketOdds,
			BookCount:  p.BookCount,
			RecordedAt: p.RecordedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Props returns the props file narrowed by the optional game_id, market
// and player query parameters. player matches case-insensitively.
func (h *Handler) Props(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ready(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	gameID, market, player := q.Get("game_id"), q.Get("market"), q.Get("player")

	out := models.PropsFile{LastUpdated: snap.Props.LastUpdated, Props: []models.Prop{}}
	for _, p := range snap.Props.Props {
		hd := p.Header()
		if gameID != "" && hd.GameID != gameID {
			continue
		}
		if market != "" && hd.Market != market {
			continue
		}
		if player != "" && !strings.EqualFold(hd.Player, player) {
			continue
		}
		out.Props = append(out.Props, p)
	}
	respondJSON(w, http.StatusOK, out)
}

// Opportunities recomputes +EV opportunities against the current snapshot.
// Supported parameters: min_ev, max_ev, book, market (comma-separated),
// sport and limit.
func (h *Handler) Opportunities(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ready(w)
	if !ok {
		return
	}
	opts, sport, limit, err := parseEVQuery(r, h.opts.EV)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opps := ev.Find(snap, opts)
	if sport != "" {
		opps = ev.BySport(opps)[sport]
	}
	opps = ev.Top(opps, limit)
	if opps == nil {
		opps = []models.Opportunity{}
	}
	respondJSON(w, http.StatusOK, models.EVFile{
		LastUpdated:   snap.Games.LastUpdated,
		Opportunities: opps,
	})
}

func parseEVQuery(r *http.Request, defaults ev.Options) (ev.Options, string, int, error) {
	q := r.URL.Query()
	opts := defaults

	parseFloat := func(name string, dst *float64) error {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", name, v)
			}
			*dst = f
		}
		return nil
	}
	if err := parseFloat("min_ev", &opts.MinEV); err != nil {
		return opts, "", 0, err
	}
	if err := parseFloat("max_ev", &opts.MaxEV); err != nil {
		return opts, "", 0, err
	}
	if opts.MaxEV != 0 && opts.MaxEV < opts.MinEV {
		return opts, "", 0, errors.New("max_ev must not be below min_ev")
	}
	if v := q.Get("book"); v != "" {
		opts.Books = strings.Split(v, ",")
	}
	if v := q.Get("market"); v != "" {
		opts.Markets = strings.Split(v, ",")
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, "", 0, fmt.Errorf("invalid limit: %q", v)
		}
		limit = n
	}
	return opts, q.Get("sport"), limit, nil
}

func (h *Handler) ready(w http.ResponseWriter) (models.Snapshot, bool) {
	snap, ok := h.state.Snapshot()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no run completed yet")
	}
	return snap, ok
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("API server stopped")
	return nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
