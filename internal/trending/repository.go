package trending

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xiuxiu06/movie-app/internal/domain"
)

type trendingDoc struct {
	ID        string `bson:"_id"`
	Term      string `bson:"term"`
	Count     int64  `bson:"count"`
	MovieID   int    `bson:"movieId"`
	PosterURL string `bson:"posterUrl,omitempty"`
	CreatedAt int64  `bson:"createdAt"`
	UpdatedAt int64  `bson:"updatedAt"`
}

// Repository persists per-search-term counters in MongoDB.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *mongo.Client, dbName string) *Repository {
	return &Repository{collection: client.Database(dbName).Collection("trending_searches")}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "count", Value: -1}}},
		{Keys: bson.D{{Key: "term", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// termDocID normalizes a search term into the document key. One document
// exists per distinct term regardless of case or surrounding whitespace.
func termDocID(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// RecordSearch increments the counter for term, creating it with count 1 when
// absent. The write is a single upsert so concurrent searches for the same
// term cannot produce duplicate records.
func (r *Repository) RecordSearch(ctx context.Context, term string, movie domain.Movie) error {
	id := termDocID(term)
	if id == "" {
		return errors.New("empty search term")
	}
	now := time.Now().UTC().Unix()
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"term":      strings.TrimSpace(term),
			"movieId":   movie.ID,
			"posterUrl": movie.PosterURL(),
			"createdAt": now,
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

// FindByTerm returns the counter record for an exact term, or ErrNotFound.
func (r *Repository) FindByTerm(ctx context.Context, term string) (domain.TrendingMovie, error) {
	var doc trendingDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": termDocID(term)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.TrendingMovie{}, domain.ErrNotFound
		}
		return domain.TrendingMovie{}, err
	}
	return fromDoc(doc), nil
}

// Top returns the most searched terms, count descending.
func (r *Repository) Top(ctx context.Context, limit int) ([]domain.TrendingMovie, error) {
	if limit <= 0 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []trendingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	movies := make([]domain.TrendingMovie, 0, len(docs))
	for _, doc := range docs {
		movies = append(movies, fromDoc(doc))
	}
	return movies, nil
}

func fromDoc(doc trendingDoc) domain.TrendingMovie {
	return domain.TrendingMovie{
		Term:      doc.Term,
		Count:     doc.Count,
		MovieID:   doc.MovieID,
		PosterURL: doc.PosterURL,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
	}
}
