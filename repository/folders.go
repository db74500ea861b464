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

func (r *MongoTables) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	timer := utils.TrackRemoteCall("list", foldersTable)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.folders.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mongoError(err)
	}
	defer cursor.Close(ctx)

	folders := []model.Folder{}
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, mongoError(err)
	}
	return folders, nil
}

func (r *MongoTables) InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	timer := utils.TrackRemoteCall("insert", foldersTable)
	defer timer.ObserveDuration()

	if folder.UserID == "" {
		return model.Folder{}, model.Invalid("user ID is required")
	}

	folder.ID = uuid.NewString()
	folder.CreatedAt = folder.CreatedAt.UTC().Truncate(time.Millisecond)
	folder.UpdatedAt = folder.UpdatedAt.UTC().Truncate(time.Millisecond)

	if _, err := r.folders.InsertOne(ctx, folder); err != nil {
		return model.Folder{}, mongoError(err)
	}
	return folder, nil
}

func (r *MongoTables) RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error) {
	timer := utils.TrackRemoteCall("update", foldersTable)
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     folderID,
		"user_id": userID,
	}
	update := bson.M{
		"$set": bson.M{
			"name":       name,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var folder model.Folder
	if err := r.folders.FindOneAndUpdate(ctx, filter, update, opts).Decode(&folder); err != nil {
		return model.Folder{}, fmt.Errorf("folder %s: %w", folderID, mongoError(err))
	}
	return folder, nil
}

func (r *MongoTables) DeleteFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("delete", foldersTable)
	defer timer.ObserveDuration()

	result, err := r.folders.DeleteOne(ctx, bson.M{"_id": folderID, "user_id": userID})
	if err != nil {
		return mongoError(err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	return nil
}
