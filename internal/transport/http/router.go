package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"arith-quiz-service/internal/app"
	"arith-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts the websocket endpoint and the read-only REST API.
func NewRouter(service *app.QuizService, ws *WSHandler, logger *slog.Logger, opts RouterOptions) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	api := &restHandler{service: service, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Get("/bank", api.bank)
		r.Get("/leaderboard", api.leaderboard)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/history", api.history)
			r.Get("/stats", api.stats)
		})
	})
	return r
}

type restHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

type bankResponse struct {
	ID    string               `json:"id"`
	Tiers []domain.TierSummary `json:"tiers"`
	Modes []modeResponse       `json:"modes"`
}

type modeResponse struct {
	Mode  domain.Mode `json:"mode"`
	Label string      `json:"label"`
}

func (h *restHandler) bank(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Bank(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	modes := make([]modeResponse, 0, len(domain.Modes))
	for _, m := range domain.Modes {
		modes = append(modes, modeResponse{Mode: m, Label: m.Label()})
	}
	respondJSON(w, http.StatusOK, bankResponse{ID: b.ID, Tiers: b.Tiers(), Modes: modes})
}

func (h *restHandler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *restHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *restHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondJSON(w, http.StatusBadRequest, errorPayload{Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	lb, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lb)
}

func (h *restHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBankNotFound), errors.Is(err, domain.ErrNoActiveSession):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSelection):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("error", err.Error()))
	}
	respondJSON(w, status, errorPayload{Message: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
