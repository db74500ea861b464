package usecase

import (
	"strings"

	"notespace/model"
)

type ViewKind string

const (
	ViewInbox     ViewKind = "inbox"
	ViewFavorites ViewKind = "favorites"
	ViewArchive   ViewKind = "archive"
	ViewTrash     ViewKind = "trash"
	ViewFolder    ViewKind = "folder"
)

// View selects a subset of notes. FolderID is only set for ViewFolder.
type View struct {
	Kind     ViewKind
	FolderID string
}

func InboxView() View     { return View{Kind: ViewInbox} }
func FavoritesView() View { return View{Kind: ViewFavorites} }
func ArchiveView() View   { return View{Kind: ViewArchive} }
func TrashView() View     { return View{Kind: ViewTrash} }

func FolderView(folderID string) View {
	return View{Kind: ViewFolder, FolderID: folderID}
}

func (v View) String() string {
	if v.Kind == ViewFolder {
		return "folder:" + v.FolderID
	}
	return string(v.Kind)
}

// ParseView maps the URL selector onto a View. An empty name is the inbox.
func ParseView(name, folderID string) (View, error) {
	switch ViewKind(strings.ToLower(strings.TrimSpace(name))) {
	case "", ViewInbox:
		return InboxView(), nil
	case ViewFavorites:
		return FavoritesView(), nil
	case ViewArchive:
		return ArchiveView(), nil
	case ViewTrash:
		return TrashView(), nil
	case ViewFolder:
		folderID = strings.TrimSpace(folderID)
		if folderID == "" {
			return View{}, model.Invalid("folder view needs a folder id")
		}
		return FolderView(folderID), nil
	}
	return View{}, model.Invalid("unknown view %q", name)
}

// Includes is the membership predicate of the view. Views overlap: a
// favorite archived note is in both favorites and archive.
func (v View) Includes(n model.Note) bool {
	switch v.Kind {
	case ViewInbox:
		return !n.IsDeleted && !n.IsArchived && !n.HasFolder()
	case ViewFavorites:
		return n.IsFavorite && !n.IsDeleted
	case ViewArchive:
		return n.IsArchived && !n.IsDeleted
	case ViewTrash:
		return n.IsDeleted
	case ViewFolder:
		return n.InFolder(v.FolderID) && !n.IsDeleted
	}
	return false
}

// Filter returns the notes of v in input order.
func Filter(notes []model.Note, v View) []model.Note {
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if v.Includes(n) {
			out = append(out, n)
		}
	}
	return out
}

// Counts tallies every system view plus each folder referenced by a
// non-trashed note.
func Counts(notes []model.Note) model.ViewCounts {
	counts := model.ViewCounts{Folders: make(map[string]int)}
	for _, n := range notes {
		if InboxView().Includes(n) {
			counts.Inbox++
		}
		if FavoritesView().Includes(n) {
			counts.Favorites++
		}
		if ArchiveView().Includes(n) {
			counts.Archive++
		}
		if TrashView().Includes(n) {
			counts.Trash++
		}
		if n.HasFolder() && !n.IsDeleted {
			counts.Folders[*n.FolderID]++
		}
	}
	return counts
}
