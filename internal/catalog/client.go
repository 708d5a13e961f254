package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiuxiu06/movie-app/internal/domain"
	"github.com/xiuxiu06/movie-app/internal/metrics"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultUserAgent = "movie-discovery/1.0"
	redisCacheKey    = "movieapp:catalog:"
)

// Client queries the movie catalog API. A page is fetched through one of two
// endpoint shapes: a text search when a query is present, or a
// popularity-sorted discovery listing when it is not.
type Client struct {
	apiKey    string
	baseURL   string
	userAgent string
	http      *http.Client
	redis     *redis.Client
	cacheTTL  time.Duration
}

type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Redis     *redis.Client
	CacheTTL  time.Duration
}

type pageResponse struct {
	Results    []domain.Movie `json:"results"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`

	// Failure shape: some deployments answer 200 with an error payload.
	Response string `json:"Response,omitempty"`
	Error    string `json:"Error,omitempty"`

	// TMDB's own failure shape.
	Success       *bool  `json:"success,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
		redis:     cfg.Redis,
		cacheTTL:  cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// FetchPage fetches one page of catalog results. Query selects between the
// search and discovery endpoints; page defaults to 1.
func (c *Client) FetchPage(ctx context.Context, query string, page int) (domain.MoviePage, error) {
	if page <= 0 {
		page = 1
	}
	query = strings.TrimSpace(query)

	cacheKey := fmt.Sprintf("%s:%d", strings.ToLower(query), page)
	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisCacheKey+cacheKey).Bytes()
		if err == nil {
			var cached domain.MoviePage
			if json.Unmarshal(data, &cached) == nil {
				metrics.CatalogCacheHitsTotal.Inc()
				return cached, nil
			}
		}
	}

	reqURL := c.buildURL(query, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.MoviePage{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	endpoint := "discover"
	if query != "" {
		endpoint = "search"
	}
	startedAt := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return domain.MoviePage{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.MoviePage{}, fmt.Errorf("%w: catalog HTTP %d: %s",
			domain.ErrFetchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return domain.MoviePage{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	var response pageResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "badpayload").Inc()
		return domain.MoviePage{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	if message, failed := payloadFailure(response); failed {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "failed").Inc()
		return domain.MoviePage{}, &domain.APIError{Message: message}
	}
	metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	result := domain.MoviePage{
		Query:      query,
		Results:    response.Results,
		Page:       response.Page,
		TotalPages: response.TotalPages,
	}
	if result.Results == nil {
		result.Results = []domain.Movie{}
	}
	if result.Page == 0 {
		result.Page = page
	}

	if c.redis != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = c.redis.Set(ctx, redisCacheKey+cacheKey, data, c.cacheTTL).Err()
		}
	}
	return result, nil
}

func (c *Client) buildURL(query string, page int) string {
	params := url.Values{"page": {strconv.Itoa(page)}}
	if query != "" {
		params.Set("query", query)
		return c.baseURL + "/search/movie?" + params.Encode()
	}
	params.Set("sort_by", "popularity.desc")
	return c.baseURL + "/discover/movie?" + params.Encode()
}

// payloadFailure detects a logical failure reported inside a 200 response.
func payloadFailure(response pageResponse) (string, bool) {
	if strings.EqualFold(strings.TrimSpace(response.Response), "False") {
		message := strings.TrimSpace(response.Error)
		if message == "" {
			message = "failed to fetch movies"
		}
		return message, true
	}
	if response.Success != nil && !*response.Success {
		message := strings.TrimSpace(response.StatusMessage)
		if message == "" {
			message = "failed to fetch movies"
		}
		return message, true
	}
	return "", false
}
