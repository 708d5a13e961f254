package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xiuxiu06/movie-app/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Client:  server.Client(),
	})
	return client, server
}

func TestFetchPageSearchEndpoint(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": 101, "title": "movieA", "poster_path": "/a.jpg"},
				{"id": 102, "title": "movieB"}
			],
			"page": 1,
			"total_pages": 5
		}`))
	})

	page, err := client.FetchPage(context.Background(), "batman", 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if gotPath != "/search/movie" {
		t.Errorf("path = %q, want /search/movie", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
	if got := gotQuery["query"]; len(got) != 1 || got[0] != "batman" {
		t.Errorf("query param = %v, want [batman]", got)
	}
	if got := gotQuery["page"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("page param = %v, want [1]", got)
	}

	if len(page.Results) != 2 || page.Results[0].Title != "movieA" {
		t.Errorf("results = %+v, want movieA first of two", page.Results)
	}
	if page.Page != 1 || page.TotalPages != 5 {
		t.Errorf("page/totalPages = %d/%d, want 1/5", page.Page, page.TotalPages)
	}
	if !page.HasMore() {
		t.Error("HasMore = false, want true for page 1 of 5")
	}
}

func TestFetchPageDiscoverEndpoint(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": [], "page": 2, "total_pages": 2}`))
	})

	page, err := client.FetchPage(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if gotPath != "/discover/movie" {
		t.Errorf("path = %q, want /discover/movie", gotPath)
	}
	if got := gotQuery["sort_by"]; len(got) != 1 || got[0] != "popularity.desc" {
		t.Errorf("sort_by = %v, want [popularity.desc]", got)
	}
	if _, present := gotQuery["query"]; present {
		t.Error("discover request must not carry a query param")
	}
	if page.HasMore() {
		t.Error("HasMore = true, want false for the last page")
	}
	if page.Results == nil {
		t.Error("results must decode to an empty slice, not nil")
	}
}

func TestFetchPageDefaultsPageToOne(t *testing.T) {
	var gotPage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"results": [], "page": 1, "total_pages": 1}`))
	})

	if _, err := client.FetchPage(context.Background(), "dune", 0); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotPage != "1" {
		t.Errorf("page param = %q, want 1", gotPage)
	}
}

func TestFetchPageHTTPFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	_, err := client.FetchPage(context.Background(), "batman", 1)
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failure must not be an APIError")
	}
}

func TestFetchPagePayloadFailure(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			"legacy failure shape with message",
			`{"Response": "False", "Error": "Invalid API key"}`,
			"Invalid API key",
		},
		{
			"legacy failure shape without message",
			`{"Response": "False"}`,
			"failed to fetch movies",
		},
		{
			"tmdb failure shape",
			`{"success": false, "status_message": "Invalid API key: You must be granted a valid key."}`,
			"Invalid API key: You must be granted a valid key.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.FetchPage(context.Background(), "batman", 1)
			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want an APIError", err)
			}
			if apiErr.Error() != tc.message {
				t.Errorf("message = %q, want %q", apiErr.Error(), tc.message)
			}
		})
	}
}

func TestFetchPageBadPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.FetchPage(context.Background(), "batman", 1)
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestBuildURLShapes(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "https://api.example.org/3"})

	if got := client.buildURL("the batman", 3); got != "https://api.example.org/3/search/movie?page=3&query=the+batman" {
		t.Errorf("search url = %q", got)
	}
	if got := client.buildURL("", 2); got != "https://api.example.org/3/discover/movie?page=2&sort_by=popularity.desc" {
		t.Errorf("discover url = %q", got)
	}
}
