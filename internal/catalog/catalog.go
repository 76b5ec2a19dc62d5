// internal/catalog/catalog.go
// Read-only song catalog lookups (MongoDB). Grounded on the teacher's
// internal/repositories/user_preferences_repository.go: a thin struct
// wrapping a *mongo.Collection, context-aware finder methods, bson.M
// filters. The core match engine never imports this package directly —
// per spec.md §6 the Router resolves song metadata before forwarding
// SelectTiebreakerSong, keeping the actor catalog-free.

package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSongNotFound is returned when a lookup finds no matching document.
var ErrSongNotFound = errors.New("catalog: song not found")

// Song is the subset of a catalog entry the match engine ever needs.
type Song struct {
	SongID     int      `bson:"song_id" json:"song_id"`
	Title      string   `bson:"title" json:"title"`
	Difficulty string   `bson:"difficulty" json:"difficulty"`
	Element    *string  `bson:"element,omitempty" json:"song_element,omitempty"`
	CoverURL   *string  `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	BPM        *float64 `bson:"bpm,omitempty" json:"bpm,omitempty"`
}

// Repository is a read-only accessor over the song catalog collection.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository wraps the song catalog collection of db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("songs")}
}

// FindByIDAndDifficulty resolves the metadata the Router attaches to a
// SelectTiebreakerSong payload before forwarding it to a match actor.
func (r *Repository) FindByIDAndDifficulty(ctx context.Context, songID int, difficulty string) (Song, error) {
	var song Song
	filter := bson.M{"song_id": songID, "difficulty": difficulty}
	err := r.collection.FindOne(ctx, filter).Decode(&song)
	if err == mongo.ErrNoDocuments {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("catalog: find song %d/%s: %w", songID, difficulty, err)
	}
	return song, nil
}

// FindByID resolves a song's full list of available difficulties (one
// catalog document per difficulty).
func (r *Repository) FindByID(ctx context.Context, songID int) ([]Song, error) {
	filter := bson.M{"song_id": songID}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("catalog: find song %d: %w", songID, err)
	}
	defer cursor.Close(ctx)

	var songs []Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("catalog: decode songs for %d: %w", songID, err)
	}
	if len(songs) == 0 {
		return nil, ErrSongNotFound
	}
	return songs, nil
}
