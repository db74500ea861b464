package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notespace/model"
	"notespace/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoTables serves the three tables from a hosted MongoDB deployment.
// Ids are assigned here, the way the hosted service assigns them.
type MongoTables struct {
	client   *mongo.Client
	notes    *mongo.Collection
	folders  *mongo.Collection
	profiles *mongo.Collection
}

func NewMongoTables(ctx context.Context, uri, dbName string, maxPoolSize uint64, maxConnIdle time.Duration) (*MongoTables, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMaxConnIdleTime(maxConnIdle).
		SetPoolMonitor(utils.MongoPoolMonitor())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return GetMongoTables(client, dbName), nil
}

func GetMongoTables(client *mongo.Client, dbName string) *MongoTables {
	db := client.Database(dbName)
	return &MongoTables{
		client:   client,
		notes:    db.Collection(notesTable),
		folders:  db.Collection(foldersTable),
		profiles: db.Collection(profilesTable),
	}
}

func (r *MongoTables) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return mongoError(err)
	}
	return nil
}

func (r *MongoTables) UsernameTaken(ctx context.Context, username string) (bool, error) {
	count, err := r.profiles.CountDocuments(ctx, map[string]any{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, mongoError(err)
	}
	return count > 0, nil
}

func (r *MongoTables) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// mongoError maps driver errors onto the model taxonomy.
func mongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.ErrNotFound
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%w: %w", model.ErrOffline, err)
	case mongo.IsDuplicateKeyError(err):
		return &model.RemoteError{Status: http.StatusConflict, Code: "duplicate_key", Message: "a row with this id already exists"}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("NetworkError") {
		return fmt.Errorf("%w: %w", model.ErrOffline, err)
	}
	return &model.RemoteError{Status: http.StatusInternalServerError, Message: err.Error()}
}
