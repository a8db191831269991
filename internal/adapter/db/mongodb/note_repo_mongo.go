package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NoteRepoMongo reads the owner reference of documents in the notes
// collection.
type NoteRepoMongo struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewNoteRepoMongo creates a repository over the notes collection of db.
func NewNoteRepoMongo(db *mongo.Database, log *zap.Logger) *NoteRepoMongo {
	return &NoteRepoMongo{coll: db.Collection(notesCollection), log: log}
}

// ExistsForUser reports whether at least one note's user field references
// userID.
func (r *NoteRepoMongo) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"user": oid}, options.Count().SetLimit(1))
	if err != nil {
		r.log.Error("failed to count notes for user", zap.Error(err), zap.String("user_id", userID))
		return false, fmt.Errorf("failed to check notes: %w", err)
	}
	return n > 0, nil
}
