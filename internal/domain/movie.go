package domain

import (
	"errors"
	"time"
)

var (
	ErrFetchFailed = errors.New("failed to fetch movies")
	ErrNotFound    = errors.New("not found")
)

// APIError is a logical failure reported inside an otherwise successful
// catalog response payload. Its message is safe to show to users.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "failed to fetch movies"
	}
	return e.Message
}

// Movie is a single catalog entry, consumed verbatim from the catalog API
// and never modified locally.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   string  `json:"poster_path,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	VoteCount    int     `json:"vote_count,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	Language     string  `json:"original_language,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
	Adult        bool    `json:"adult,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
}

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterURL returns the full poster image URL, or "" when the movie has no poster.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return posterBaseURL + m.PosterPath
}

func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, c := range m.ReleaseDate[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

// MoviePage is one page of catalog results.
type MoviePage struct {
	Query      string  `json:"query,omitempty"`
	Results    []Movie `json:"results"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// HasMore reports whether the catalog has pages beyond this one.
func (p MoviePage) HasMore() bool {
	return p.Page < p.TotalPages
}

// TrendingMovie is a per-search-term counter persisted in the trending store.
// At most one record exists per distinct term.
type TrendingMovie struct {
	Term      string    `json:"term"`
	Count     int64     `json:"count"`
	MovieID   int       `json:"movieId"`
	PosterURL string    `json:"posterUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionState is a snapshot of a live search session, pushed to clients
// after every transition.
type SessionState struct {
	Term       string  `json:"term"`
	Query      string  `json:"query"`
	Page       int     `json:"page"`
	Movies     []Movie `json:"movies"`
	Loading    bool    `json:"loading"`
	HasMore    bool    `json:"hasMore"`
	Error      string  `json:"error,omitempty"`
	Generation uint64  `json:"-"`
}
