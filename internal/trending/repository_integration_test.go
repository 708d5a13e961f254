package trending

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xiuxiu06/movie-app/internal/domain"
)

// testMongoURI returns the MongoDB connection URI for integration tests.
// Defaults to localhost:27017. Set MONGO_TEST_URI to override.
func testMongoURI() string {
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// setupTestRepo connects to MongoDB and returns a Repository using a unique
// test database. The cleanup function drops the database and disconnects.
// Calls t.Skip if MongoDB is unreachable.
func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uri := testMongoURI()
	client, err := Connect(ctx, uri, options.Client().SetConnectTimeout(3*time.Second))
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB ping failed at %s: %v", uri, err)
	}

	dbName := fmt.Sprintf("movieapp_test_%d", time.Now().UnixNano())
	repo := NewRepository(client, dbName)

	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		t.Fatalf("EnsureIndexes: %v", err)
	}

	cleanup := func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = client.Database(dbName).Drop(ctx2)
		_ = client.Disconnect(ctx2)
	}
	return repo, cleanup
}

func TestRecordSearchCreatesThenIncrements(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	movie := domain.Movie{ID: 438631, Title: "Dune", PosterPath: "/dune.jpg"}
	if err := repo.RecordSearch(ctx, "dune", movie); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}

	record, err := repo.FindByTerm(ctx, "dune")
	if err != nil {
		t.Fatalf("FindByTerm: %v", err)
	}
	if record.Count != 1 {
		t.Errorf("Count = %d, want 1 after first search", record.Count)
	}
	if record.MovieID != 438631 {
		t.Errorf("MovieID = %d, want 438631", record.MovieID)
	}
	if record.PosterURL != movie.PosterURL() {
		t.Errorf("PosterURL = %q, want %q", record.PosterURL, movie.PosterURL())
	}

	// Repeat searches increment in place, never duplicate.
	for i := 0; i < 3; i++ {
		if err := repo.RecordSearch(ctx, "dune", movie); err != nil {
			t.Fatalf("RecordSearch repeat %d: %v", i, err)
		}
	}
	record, err = repo.FindByTerm(ctx, "dune")
	if err != nil {
		t.Fatalf("FindByTerm after repeats: %v", err)
	}
	if record.Count != 4 {
		t.Errorf("Count = %d, want 4", record.Count)
	}

	all, err := repo.Top(ctx, 100)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("records = %d, want a single record per term", len(all))
	}
}

func TestRecordSearchFoldsTermCase(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	movie := domain.Movie{ID: 414906, Title: "The Batman"}
	if err := repo.RecordSearch(ctx, "Batman", movie); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if err := repo.RecordSearch(ctx, "  batman ", movie); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}

	record, err := repo.FindByTerm(ctx, "BATMAN")
	if err != nil {
		t.Fatalf("FindByTerm: %v", err)
	}
	if record.Count != 2 {
		t.Errorf("Count = %d, want 2 across case variants", record.Count)
	}
	if record.Term != "Batman" {
		t.Errorf("Term = %q, want the first-seen spelling kept", record.Term)
	}
}

func TestFindByTermMissing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindByTerm(context.Background(), "nosuchterm")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTopOrdersByCountDescending(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	searches := map[string]int{"dune": 3, "batman": 5, "alien": 1, "heat": 2}
	for term, hits := range searches {
		for i := 0; i < hits; i++ {
			if err := repo.RecordSearch(ctx, term, domain.Movie{ID: 1}); err != nil {
				t.Fatalf("RecordSearch(%q): %v", term, err)
			}
		}
	}

	top, err := repo.Top(ctx, 3)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len(top) = %d, want 3", len(top))
	}
	wantOrder := []string{"batman", "dune", "heat"}
	for i, want := range wantOrder {
		if top[i].Term != want {
			t.Errorf("top[%d].Term = %q, want %q", i, top[i].Term, want)
		}
	}
	if top[0].Count != 5 {
		t.Errorf("top[0].Count = %d, want 5", top[0].Count)
	}
}
