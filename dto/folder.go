package dto

import (
	"time"

	"notespace/model"
)

type FolderResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	NoteCount  int              `json:"note_count"`
	SyncStatus model.SyncStatus `json:"sync_status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Links      map[string]Link  `json:"_links,omitempty"`
}

type FolderRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

func ToFolderResponse(folder model.Folder, noteCount int, status model.SyncStatus, links map[string]Link) FolderResponse {
	if status == "" {
		status = model.SyncConfirmed
	}
	return FolderResponse{
		ID:         folder.ID,
		Name:       folder.Name,
		NoteCount:  noteCount,
		SyncStatus: status,
		CreatedAt:  folder.CreatedAt,
		UpdatedAt:  folder.UpdatedAt,
		Links:      links,
	}
}

type CountsResponse struct {
	model.ViewCounts
	Links map[string]Link `json:"_links,omitempty"`
}
