package dto

import (
	"time"

	"notespace/model"
)

type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"` // Optional: GET, POST, PATCH, DELETE
}

type NoteResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	FolderID   *string          `json:"folder_id"`
	IsFavorite bool             `json:"is_favorite"`
	IsArchived bool             `json:"is_archived"`
	IsDeleted  bool             `json:"is_deleted"`
	State      string           `json:"state"`
	SyncStatus model.SyncStatus `json:"sync_status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Links      map[string]Link  `json:"_links,omitempty"`
}

type NotesViewResponse struct {
	View  string          `json:"view"`
	Notes []NoteResponse  `json:"notes"`
	Count int             `json:"count"`
	Links map[string]Link `json:"_links,omitempty"`
}

type CreateNoteRequest struct {
	Title    string  `json:"title" binding:"max=500"`
	Content  string  `json:"content" binding:"max=100000"`
	FolderID *string `json:"folder_id"`
}

// UpdateNoteRequest is a partial update; absent fields stay as they are.
// A folder_id of "" takes the note out of its folder.
type UpdateNoteRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=500"`
	Content    *string `json:"content" binding:"omitempty,max=100000"`
	FolderID   *string `json:"folder_id"`
	IsFavorite *bool   `json:"is_favorite"`
}

type MoveNoteRequest struct {
	FolderID string `json:"folder_id"`
}

func (r CreateNoteRequest) ToInput() model.NoteInput {
	return model.NoteInput{Title: r.Title, Content: r.Content, FolderID: r.FolderID}
}

func (r UpdateNoteRequest) ToPatch() model.NotePatch {
	return model.NotePatch{
		Title:      r.Title,
		Content:    r.Content,
		FolderID:   r.FolderID,
		IsFavorite: r.IsFavorite,
	}
}

// Convert a single note to NoteResponse
func ToNoteResponse(note model.Note, status model.SyncStatus, links map[string]Link) NoteResponse {
	if status == "" {
		status = model.SyncConfirmed
	}
	return NoteResponse{
		ID:         note.ID,
		Title:      note.Title,
		Content:    note.Content,
		FolderID:   note.FolderID,
		IsFavorite: note.IsFavorite,
		IsArchived: note.IsArchived,
		IsDeleted:  note.IsDeleted,
		State:      note.State().String(),
		SyncStatus: status,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
		Links:      links,
	}
}

// Convert slice of notes to slice of NoteResponse
func ToNoteResponses(notes []model.Note, statusOf func(id string) model.SyncStatus, getNoteLinks func(note model.Note) map[string]Link) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note, statusOf(note.ID), getNoteLinks(note))
	}
	return responses
}
