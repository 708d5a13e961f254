package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xiuxiu06/movie-app/internal/domain"
	"github.com/xiuxiu06/movie-app/internal/metrics"
)

const trendingWriteTimeout = 5 * time.Second

// Catalog fetches pages of movies from the external catalog API.
type Catalog interface {
	FetchPage(ctx context.Context, query string, page int) (domain.MoviePage, error)
}

// TrendingStore persists per-search-term counters.
type TrendingStore interface {
	RecordSearch(ctx context.Context, term string, movie domain.Movie) error
	Top(ctx context.Context, limit int) ([]domain.TrendingMovie, error)
}

// Service orchestrates catalog browsing and trending tracking. Identical
// in-flight catalog queries are collapsed into one request.
type Service struct {
	catalog       Catalog
	trending      TrendingStore
	logger        *slog.Logger
	group         singleflight.Group
	trendingLimit int

	topMu sync.RWMutex
	top   []domain.TrendingMovie
}

type ServiceOption func(*Service)

func WithTrendingStore(store TrendingStore) ServiceOption {
	return func(s *Service) {
		s.trending = store
	}
}

func WithTrendingLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.trendingLimit = limit
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(catalog Catalog, options ...ServiceOption) *Service {
	service := &Service{
		catalog:       catalog,
		logger:        slog.Default(),
		trendingLimit: 10,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	return service
}

// Start performs the initial trending list load. Failure is logged and the
// list stays empty until the next successful refresh.
func (s *Service) Start(ctx context.Context) {
	if s.trending == nil {
		return
	}
	s.refreshTrending(ctx)
}

// Browse fetches one page of movies: a text search when query is non-empty,
// otherwise the popularity-sorted discovery listing. A successful first-page
// text search with at least one result records exactly one trending upsert
// and refreshes the top list; trending failures never surface to the caller.
func (s *Service) Browse(ctx context.Context, query string, page int) (domain.MoviePage, error) {
	if page <= 0 {
		page = 1
	}
	query = strings.TrimSpace(query)

	key := fmt.Sprintf("%s:%d", strings.ToLower(query), page)
	value, err, _ := s.group.Do(key, func() (any, error) {
		result, err := s.catalog.FetchPage(ctx, query, page)
		if err != nil {
			return domain.MoviePage{}, err
		}
		return result, nil
	})
	if err != nil {
		return domain.MoviePage{}, err
	}
	result := value.(domain.MoviePage)

	if query != "" && page == 1 && len(result.Results) > 0 {
		s.trackSearch(query, result.Results[0])
	}
	return result, nil
}

// Trending returns the most recently loaded top list.
func (s *Service) Trending(ctx context.Context) []domain.TrendingMovie {
	s.topMu.RLock()
	top := s.top
	s.topMu.RUnlock()
	if top == nil {
		return []domain.TrendingMovie{}
	}
	return top
}

// trackSearch runs the trending upsert off the request path so a slow or
// failing store never delays or errors the browse flow.
func (s *Service) trackSearch(term string, movie domain.Movie) {
	if s.trending == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trendingWriteTimeout)
		defer cancel()
		if err := s.trending.RecordSearch(ctx, term, movie); err != nil {
			metrics.TrendingUpdatesTotal.WithLabelValues("error").Inc()
			s.logger.Warn("trending update failed",
				slog.String("term", term),
				slog.String("error", err.Error()),
			)
			return
		}
		metrics.TrendingUpdatesTotal.WithLabelValues("ok").Inc()
		s.refreshTrending(ctx)
	}()
}

func (s *Service) refreshTrending(ctx context.Context) {
	top, err := s.trending.Top(ctx, s.trendingLimit)
	if err != nil {
		s.logger.Warn("trending list refresh failed", slog.String("error", err.Error()))
		return
	}
	s.topMu.Lock()
	s.top = top
	s.topMu.Unlock()
}
