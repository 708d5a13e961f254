package trending

import (
	"testing"
	"time"
)

func TestTermDocID(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"lowercase passthrough", "batman", "batman"},
		{"mixed case folds", "BatMan", "batman"},
		{"surrounding whitespace trimmed", "  dune  ", "dune"},
		{"inner whitespace kept", "the batman", "the batman"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := termDocID(tc.term); got != tc.want {
				t.Errorf("termDocID(%q) = %q, want %q", tc.term, got, tc.want)
			}
		})
	}
}

func TestFromDoc(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)
	doc := trendingDoc{
		ID:        "batman",
		Term:      "batman",
		Count:     7,
		MovieID:   414906,
		PosterURL: "https://image.tmdb.org/t/p/w500/poster.jpg",
		CreatedAt: created.Unix(),
		UpdatedAt: updated.Unix(),
	}

	got := fromDoc(doc)

	if got.Term != "batman" {
		t.Errorf("Term = %q, want batman", got.Term)
	}
	if got.Count != 7 {
		t.Errorf("Count = %d, want 7", got.Count)
	}
	if got.MovieID != 414906 {
		t.Errorf("MovieID = %d, want 414906", got.MovieID)
	}
	if got.PosterURL != doc.PosterURL {
		t.Errorf("PosterURL = %q, want %q", got.PosterURL, doc.PosterURL)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, updated)
	}
}
