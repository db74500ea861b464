package repository

import (
	"context"
	"fmt"
	"time"

	"notespace/model"
	"notespace/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListNotes retrieves all notes for a user, newest edit first
func (r *MongoTables) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	timer := utils.TrackRemoteCall("list", notesTable)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.notes.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mongoError(err)
	}
	defer cursor.Close(ctx)

	notes := []model.Note{}
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, mongoError(err)
	}
	return notes, nil
}

// InsertNote stores a new note under a fresh id and returns the stored row
func (r *MongoTables) InsertNote(ctx context.Context, note model.Note) (model.Note, error) {
	timer := utils.TrackRemoteCall("insert", notesTable)
	defer timer.ObserveDuration()

	if note.UserID == "" {
		return model.Note{}, model.Invalid("user ID is required")
	}

	note.ID = uuid.NewString()
	note.CreatedAt = note.CreatedAt.UTC().Truncate(time.Millisecond)
	note.UpdatedAt = note.UpdatedAt.UTC().Truncate(time.Millisecond)

	if _, err := r.notes.InsertOne(ctx, note); err != nil {
		return model.Note{}, mongoError(err)
	}
	return note, nil
}

// UpdateNote applies the patch and returns the note as stored afterwards
func (r *MongoTables) UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error) {
	timer := utils.TrackRemoteCall("update", notesTable)
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     noteID,
		"user_id": userID,
	}
	update := bson.M{"$set": patch.Fields()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var note model.Note
	if err := r.notes.FindOneAndUpdate(ctx, filter, update, opts).Decode(&note); err != nil {
		return model.Note{}, fmt.Errorf("note %s: %w", noteID, mongoError(err))
	}
	return note, nil
}

// DeleteNote deletes a specific note
func (r *MongoTables) DeleteNote(ctx context.Context, userID, noteID string) error {
	timer := utils.TrackRemoteCall("delete", notesTable)
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     noteID,
		"user_id": userID,
	}

	result, err := r.notes.DeleteOne(ctx, filter)
	if err != nil {
		return mongoError(err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	return nil
}

// ClearFolder orphans every note of the user that sits in folderID
func (r *MongoTables) ClearFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("clear_folder", notesTable)
	defer timer.ObserveDuration()

	filter := bson.M{
		"user_id":   userID,
		"folder_id": folderID,
	}
	update := bson.M{
		"$set": bson.M{
			"folder_id":  nil,
			"updated_at": time.Now().UTC(),
		},
	}

	if _, err := r.notes.UpdateMany(ctx, filter, update); err != nil {
		return mongoError(err)
	}
	return nil
}
