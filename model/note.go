package model

import (
	"strings"
	"time"
)

const DefaultNoteTitle = "Untitled"

type Note struct {
	ID         string    `bson:"_id" json:"id,omitempty" db:"id"`
	UserID     string    `bson:"user_id" json:"user_id" db:"user_id"`
	Title      string    `bson:"title" json:"title" db:"title"`
	Content    string    `bson:"content" json:"content" db:"content"`
	FolderID   *string   `bson:"folder_id" json:"folder_id" db:"folder_id"`
	IsFavorite bool      `bson:"is_favorite" json:"is_favorite" db:"is_favorite"`
	IsArchived bool      `bson:"is_archived" json:"is_archived" db:"is_archived"`
	IsDeleted  bool      `bson:"is_deleted" json:"is_deleted" db:"is_deleted"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at" db:"updated_at"`
}

// NoteInput is what a caller supplies when creating a note. Everything else
// is defaulted.
type NoteInput struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	FolderID *string `json:"folder_id"`
}

// NewNote builds the row submitted on create: placeholder title, all flags
// cleared and both timestamps set to now.
func NewNote(userID string, in NoteInput, now time.Time) Note {
	var folderID *string
	if in.FolderID != nil && *in.FolderID != "" {
		id := *in.FolderID
		folderID = &id
	}
	return Note{
		UserID:    userID,
		Title:     NormalizeTitle(in.Title),
		Content:   in.Content,
		FolderID:  folderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultNoteTitle
	}
	return title
}

// InFolder reports whether the note references folderID.
func (n Note) InFolder(folderID string) bool {
	return n.FolderID != nil && *n.FolderID == folderID
}

func (n Note) HasFolder() bool {
	return n.FolderID != nil && *n.FolderID != ""
}

// Clone returns a copy that shares no pointers with n.
func (n Note) Clone() Note {
	if n.FolderID != nil {
		id := *n.FolderID
		n.FolderID = &id
	}
	return n
}

// NotePatch is a partial update. Nil fields are left untouched. A FolderID
// pointing at the empty string clears the folder reference.
type NotePatch struct {
	Title      *string    `json:"title,omitempty"`
	Content    *string    `json:"content,omitempty"`
	FolderID   *string    `json:"folder_id,omitempty"`
	IsFavorite *bool      `json:"is_favorite,omitempty"`
	IsArchived *bool      `json:"is_archived,omitempty"`
	IsDeleted  *bool      `json:"is_deleted,omitempty"`
	UpdatedAt  *time.Time `json:"-"`
}

func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.FolderID == nil &&
		p.IsFavorite == nil && p.IsArchived == nil && p.IsDeleted == nil
}

// Apply merges the patch into n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = NormalizeTitle(*p.Title)
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.FolderID != nil {
		if *p.FolderID == "" {
			n.FolderID = nil
		} else {
			id := *p.FolderID
			n.FolderID = &id
		}
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	if p.IsArchived != nil {
		n.IsArchived = *p.IsArchived
	}
	if p.IsDeleted != nil {
		n.IsDeleted = *p.IsDeleted
	}
	if p.UpdatedAt != nil {
		n.UpdatedAt = *p.UpdatedAt
	}
}

// Fields returns the patch as column -> value, the shape every table backend
// accepts. A cleared folder maps to nil.
func (p NotePatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = NormalizeTitle(*p.Title)
	}
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	if p.FolderID != nil {
		if *p.FolderID == "" {
			fields["folder_id"] = nil
		} else {
			fields["folder_id"] = *p.FolderID
		}
	}
	if p.IsFavorite != nil {
		fields["is_favorite"] = *p.IsFavorite
	}
	if p.IsArchived != nil {
		fields["is_archived"] = *p.IsArchived
	}
	if p.IsDeleted != nil {
		fields["is_deleted"] = *p.IsDeleted
	}
	if p.UpdatedAt != nil {
		fields["updated_at"] = p.UpdatedAt.UTC()
	}
	return fields
}

// Helpers for building patches inline.

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

// SyncStatus tells whether the local copy of a row still waits for the
// remote service to confirm an optimistic change.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncConfirmed SyncStatus = "confirmed"
)
