package repository

import (
	"context"

	"notespace/model"
)

// NoteTable is the remote notes table. Every call is a single round trip
// scoped to the owner.
type NoteTable interface {
	ListNotes(ctx context.Context, userID string) ([]model.Note, error)
	InsertNote(ctx context.Context, note model.Note) (model.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
	// ClearFolder nulls folder_id on every note of userID in folderID.
	ClearFolder(ctx context.Context, userID, folderID string) error
}

type FolderTable interface {
	ListFolders(ctx context.Context, userID string) ([]model.Folder, error)
	InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error)
	RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error)
	DeleteFolder(ctx context.Context, userID, folderID string) error
}

type ProfileTable interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Pinger issues the lightweight query used by the connectivity poll.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Tables bundles everything a backend provides.
type Tables interface {
	NoteTable
	FolderTable
	ProfileTable
	Pinger
	Close(ctx context.Context) error
}

// TokenSource hands out the current access token, empty when signed out.
type TokenSource interface {
	AccessToken() string
}

type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }
