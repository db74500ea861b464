package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes the listing order and the owner scoping
// rely on. Safe to run on every start.
func (r *MongoTables) SetupIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	noteIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
			Options: options.Index().SetName("user_notes_updated"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "folder_id", Value: 1},
			},
			Options: options.Index().SetName("user_notes_folder"),
		},
	}

	folderIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("user_folders_created"),
		},
	}

	profileIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("profile_username").SetUnique(true),
		},
	}

	if _, err := r.notes.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}
	if _, err := r.folders.Indexes().CreateMany(ctx, folderIndexes); err != nil {
		return fmt.Errorf("failed to create folders indexes: %w", err)
	}
	if _, err := r.profiles.Indexes().CreateMany(ctx, profileIndexes); err != nil {
		return fmt.Errorf("failed to create profiles indexes: %w", err)
	}

	log.Info().Msg("mongo indexes ready")
	return nil
}
