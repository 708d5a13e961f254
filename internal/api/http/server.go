package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xiuxiu06/movie-app/internal/domain"
	"github.com/xiuxiu06/movie-app/internal/session"
)

const (
	maxQueryLength = 500
	maxPageNumber  = 500
)

// DiscoveryService is the browse and trending surface exposed over HTTP.
type DiscoveryService interface {
	Browse(ctx context.Context, query string, page int) (domain.MoviePage, error)
	Trending(ctx context.Context) []domain.TrendingMovie
}

type Server struct {
	discovery       DiscoveryService
	logger          *slog.Logger
	debouncePeriod  time.Duration
	scrollThreshold int
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithDebouncePeriod(period time.Duration) ServerOption {
	return func(s *Server) {
		if period > 0 {
			s.debouncePeriod = period
		}
	}
}

func WithScrollThreshold(threshold int) ServerOption {
	return func(s *Server) {
		if threshold > 0 {
			s.scrollThreshold = threshold
		}
	}
}

func NewServer(discovery DiscoveryService, options ...ServerOption) *Server {
	server := &Server{
		discovery:       discovery,
		logger:          slog.Default(),
		debouncePeriod:  session.DefaultDebouncePeriod,
		scrollThreshold: session.DefaultScrollThreshold,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/movies/trending", s.handleTrending)
	mux.HandleFunc("/movies/poster", s.handlePoster)
	mux.HandleFunc("/movies/live", s.handleLive)
	mux.HandleFunc("/movies", s.handleMovies)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "movie-discovery",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleMovies serves one catalog page: a text search when q is present,
// otherwise the popularity-sorted discovery listing.
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/movies" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.discovery == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "discovery service is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil || page > maxPageNumber {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}

	result, err := s.discovery.Browse(r.Context(), query, page)
	if err != nil {
		s.logger.Warn("browse request failed",
			slog.String("query", truncate(query, 80)),
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		var apiErr *domain.APIError
		switch {
		case errors.As(err, &apiErr):
			writeError(w, http.StatusBadGateway, "catalog_error", apiErr.Error())
		case errors.Is(err, domain.ErrFetchFailed):
			writeError(w, http.StatusBadGateway, "catalog_error", "failed to fetch movies")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to fetch movies")
		}
		return
	}

	s.logger.Info("browse completed",
		slog.String("query", truncate(query, 80)),
		slog.Int("page", result.Page),
		slog.Int("results", len(result.Results)),
		slog.Bool("hasMore", result.HasMore()),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":      result.Query,
		"results":    result.Results,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"hasMore":    result.HasMore(),
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/movies/trending" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.discovery == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "discovery service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.discovery.Trending(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

func parsePositiveInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return value, nil
}
