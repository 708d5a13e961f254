package session

import (
	"errors"
	"sync"

	"github.com/xiuxiu06/movie-app/internal/domain"
)

const genericFetchError = "failed to fetch movies"

// FetchSpec captures what a fetch triggered by a session transition should
// request, together with the generation token identifying the state it was
// issued for. Results carrying a superseded generation are discarded.
type FetchSpec struct {
	Query      string
	Page       int
	Generation uint64
}

// Session owns the state of one live movie search: the raw and debounced
// terms, the accumulated result list, pagination and the loading flag.
// All state changes go through transition methods; the snapshot returned by
// each transition is what a client should render.
type Session struct {
	mu         sync.Mutex
	state      domain.SessionState
	generation uint64
}

func New() *Session {
	return &Session{
		state: domain.SessionState{Page: 1, Movies: []domain.Movie{}},
	}
}

// SetTerm records the live input value. It does not trigger a fetch; the
// debounced term drives fetching.
func (s *Session) SetTerm(term string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Term = term
	return s.snapshotLocked()
}

// SetQuery applies a debounced term change: page resets to 1 and any prior
// error is cleared. The returned FetchSpec describes the first page to fetch.
// A no-op change (same query) returns ok=false and issues no fetch.
func (s *Session) SetQuery(query string) (domain.SessionState, FetchSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == s.state.Query {
		return s.snapshotLocked(), FetchSpec{}, false
	}
	s.generation++
	s.state.Query = query
	s.state.Page = 1
	s.state.Error = ""
	s.state.Loading = true
	return s.snapshotLocked(), FetchSpec{Query: query, Page: 1, Generation: s.generation}, true
}

// Begin marks a fetch for the current query and page as in flight. It is the
// initial-load transition: on mount the first page of the active (empty)
// query is fetched before any input arrives.
func (s *Session) Begin() (domain.SessionState, FetchSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = true
	return s.snapshotLocked(), FetchSpec{Query: s.state.Query, Page: s.state.Page, Generation: s.generation}
}

// AdvancePage is the scroll sentinel transition: when the viewport is near
// the bottom, no fetch is in flight and more pages are believed to exist,
// the page counter advances and a fetch for it is requested.
func (s *Session) AdvancePage(scroll Scroll, threshold int) (domain.SessionState, FetchSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !scroll.NearBottom(threshold) || s.state.Loading || !s.state.HasMore {
		return s.snapshotLocked(), FetchSpec{}, false
	}
	s.state.Page++
	s.state.Loading = true
	return s.snapshotLocked(), FetchSpec{Query: s.state.Query, Page: s.state.Page, Generation: s.generation}, true
}

// ApplyPage merges a fetched page into the session. Page 1 replaces the list,
// deeper pages append in arrival order; hasMore is true iff the response's
// page is strictly below its total page count. Results from a superseded
// generation are dropped on arrival.
func (s *Session) ApplyPage(spec FetchSpec, page domain.MoviePage) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if spec.Generation != s.generation {
		return s.snapshotLocked()
	}
	s.state.Loading = false
	s.state.Error = ""
	if page.Page <= 1 {
		s.state.Movies = append([]domain.Movie(nil), page.Results...)
	} else {
		s.state.Movies = append(s.state.Movies, page.Results...)
	}
	s.state.HasMore = page.HasMore()
	return s.snapshotLocked()
}

// ApplyError records a failed fetch. A payload-level API error surfaces its
// message and clears the list; a transport error shows the generic message
// and clears the list only on a fresh first-page search. The loading flag is
// cleared on every path.
func (s *Session) ApplyError(spec FetchSpec, err error) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if spec.Generation != s.generation {
		return s.snapshotLocked()
	}
	s.state.Loading = false

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		s.state.Error = apiErr.Error()
		s.state.Movies = []domain.Movie{}
		s.state.HasMore = false
		return s.snapshotLocked()
	}

	s.state.Error = genericFetchError
	if spec.Page <= 1 {
		s.state.Movies = []domain.Movie{}
		s.state.HasMore = false
	}
	return s.snapshotLocked()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionState {
	snap := s.state
	snap.Movies = append([]domain.Movie(nil), s.state.Movies...)
	snap.Generation = s.generation
	return snap
}
