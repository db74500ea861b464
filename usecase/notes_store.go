package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"notespace/model"
	"notespace/repository"
	"notespace/services"
	"notespace/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionSource is the part of the session manager the store depends on.
type SessionSource interface {
	User() *model.User
	Expire(ctx context.Context)
}

const tempIDPrefix = "local-"

func isTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

type noteEntry struct {
	note   model.Note
	status model.SyncStatus
	rev    uint64
}

type folderEntry struct {
	folder model.Folder
	status model.SyncStatus
	rev    uint64
}

// NotesStore is the local mirror of the signed-in user's notes and folders.
// Every mutation is applied locally first, marked pending, sent in one round
// trip and then either confirmed with the row the service returned or rolled
// back. A rollback is skipped when a newer local mutation touched the row in
// the meantime. The mutex is never held across a remote call.
type NotesStore struct {
	notesRepo   repository.NoteTable
	foldersRepo repository.FolderTable
	session     SessionSource
	notifier    services.Notifier
	now         func() time.Time

	mu      sync.RWMutex
	notes   []*noteEntry
	folders []*folderEntry
	purged  map[string]struct{}
	rev     uint64
	// epoch changes on Reset so that responses to calls issued before a
	// sign-out are dropped
	epoch uint64
}

func NewNotesStore(notes repository.NoteTable, folders repository.FolderTable, session SessionSource, notifier services.Notifier) *NotesStore {
	return &NotesStore{
		notesRepo:   notes,
		foldersRepo: folders,
		session:     session,
		notifier:    notifier,
		now:         time.Now,
		purged:      make(map[string]struct{}),
	}
}

// Reset forgets everything. Called on sign-out and session expiry.
func (s *NotesStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = nil
	s.folders = nil
	s.purged = make(map[string]struct{})
	s.epoch++
}

func (s *NotesStore) owner(op string) (string, error) {
	if u := s.session.User(); u != nil && u.ID != "" {
		return u.ID, nil
	}
	utils.TrackNoteOperation(op, model.ErrUnauthenticated)
	s.notify(model.LevelError, model.UserMessage(model.ErrUnauthenticated))
	return "", model.ErrUnauthenticated
}

func (s *NotesStore) notify(level model.NotificationLevel, message string) {
	if s.notifier != nil && message != "" {
		s.notifier.Notify(level, message)
	}
}

// fail records a failed operation. Session expiry goes to the session
// manager, which tells the user; everything else is reported here.
func (s *NotesStore) fail(ctx context.Context, op, failure string, err error) error {
	utils.TrackNoteOperation(op, err)
	kind := model.Classify(err)
	log.Warn().Err(err).Str("operation", op).Str("kind", string(kind)).Msg("notes operation failed")

	if kind == model.KindSessionExpired {
		s.session.Expire(ctx)
		return err
	}
	s.notify(model.LevelError, fmt.Sprintf("%s: %s", failure, model.UserMessage(err)))
	return err
}

// detach keeps a write running when the caller goes away. Once sent, the
// service may commit it, so only its answer decides confirm or rollback.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// checkFolderRef validates a folder reference against the local folders.
// The caller holds s.mu.
func (s *NotesStore) checkFolderRef(folderID string) error {
	if folderID == "" {
		return nil
	}
	if _, f := s.findFolder(folderID); f == nil {
		return fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	if isTempID(folderID) {
		return fmt.Errorf("%w: folder %s", model.ErrNotePending, folderID)
	}
	return nil
}

func (s *NotesStore) succeed(op, message string) {
	utils.TrackNoteOperation(op, nil)
	s.notify(model.LevelSuccess, message)
}

func (s *NotesStore) nextRev() uint64 {
	s.rev++
	return s.rev
}

func (s *NotesStore) findNote(id string) (int, *noteEntry) {
	for i, e := range s.notes {
		if e.note.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (s *NotesStore) findFolder(id string) (int, *folderEntry) {
	for i, e := range s.folders {
		if e.folder.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (s *NotesStore) removeNoteAt(i int) {
	s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
}

func (s *NotesStore) insertNoteAt(i int, e *noteEntry) {
	if i < 0 || i > len(s.notes) {
		i = len(s.notes)
	}
	s.notes = append(s.notes[:i:i], append([]*noteEntry{e}, s.notes[i:]...)...)
}

func (s *NotesStore) insertFolderAt(i int, e *folderEntry) {
	if i < 0 || i > len(s.folders) {
		i = len(s.folders)
	}
	s.folders = append(s.folders[:i:i], append([]*folderEntry{e}, s.folders[i:]...)...)
}

// ListNotes replaces the local notes with the owner's rows, newest edit
// first. Creates still in flight are kept at the top so their confirmation
// has a row to land on.
func (s *NotesStore) ListNotes(ctx context.Context) ([]model.Note, error) {
	const op = "list_notes"
	userID, err := s.owner(op)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	rows, err := s.notesRepo.ListNotes(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, op, "Failed to load notes", err)
	}

	s.mu.Lock()
	if s.epoch == epoch {
		entries := make([]*noteEntry, 0, len(rows)+1)
		for _, e := range s.notes {
			if isTempID(e.note.ID) {
				entries = append(entries, e)
			}
		}
		for _, n := range rows {
			if _, gone := s.purged[n.ID]; gone {
				continue
			}
			entries = append(entries, &noteEntry{note: n.Clone(), status: model.SyncConfirmed})
		}
		s.notes = entries
	}
	s.mu.Unlock()

	utils.TrackNoteOperation(op, nil)
	return s.Notes(), nil
}

// ListFolders replaces the local folders with the owner's rows, oldest first.
func (s *NotesStore) ListFolders(ctx context.Context) ([]model.Folder, error) {
	const op = "list_folders"
	userID, err := s.owner(op)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	rows, err := s.foldersRepo.ListFolders(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, op, "Failed to load folders", err)
	}

	s.mu.Lock()
	if s.epoch == epoch {
		entries := make([]*folderEntry, 0, len(rows))
		for _, f := range rows {
			entries = append(entries, &folderEntry{folder: f, status: model.SyncConfirmed})
		}
		for _, e := range s.folders {
			if isTempID(e.folder.ID) {
				entries = append(entries, e)
			}
		}
		s.folders = entries
	}
	s.mu.Unlock()

	utils.TrackNoteOperation(op, nil)
	return s.Folders(), nil
}

// CreateNote prepends a pending note under a temporary id and swaps in the
// stored row once the service confirms it.
func (s *NotesStore) CreateNote(ctx context.Context, in model.NoteInput) (model.Note, error) {
	const op = "create_note"
	ctx = detach(ctx)
	userID, err := s.owner(op)
	if err != nil {
		return model.Note{}, err
	}

	note := model.NewNote(userID, in, s.now().UTC())
	tempID := tempIDPrefix + uuid.NewString()

	s.mu.Lock()
	if note.FolderID != nil {
		if err := s.checkFolderRef(*note.FolderID); err != nil {
			s.mu.Unlock()
			return model.Note{}, s.fail(ctx, op, "Failed to create note", err)
		}
	}
	pending := note.Clone()
	pending.ID = tempID
	s.notes = append([]*noteEntry{{note: pending, status: model.SyncPending, rev: s.nextRev()}}, s.notes...)
	epoch := s.epoch
	s.mu.Unlock()

	created, err := s.notesRepo.InsertNote(ctx, note)

	s.mu.Lock()
	if s.epoch == epoch {
		i, _ := s.findNote(tempID)
		switch {
		case err != nil:
			if i >= 0 {
				s.removeNoteAt(i)
			}
		default:
			s.confirmCreatedNote(i, created)
		}
	}
	s.mu.Unlock()

	if err != nil {
		return model.Note{}, s.fail(ctx, op, "Failed to create note", err)
	}
	s.succeed(op, "Note created")
	return created.Clone(), nil
}

// confirmCreatedNote swaps the pending entry at i for the stored row. A
// listing that raced the insert may already hold the row; the pending entry
// is dropped then.
func (s *NotesStore) confirmCreatedNote(i int, created model.Note) {
	if _, gone := s.purged[created.ID]; gone {
		if i >= 0 {
			s.removeNoteAt(i)
		}
		return
	}

	if _, existing := s.findNote(created.ID); existing != nil {
		existing.note = created.Clone()
		existing.status = model.SyncConfirmed
		if i >= 0 {
			s.removeNoteAt(i)
		}
		return
	}

	entry := &noteEntry{note: created.Clone(), status: model.SyncConfirmed, rev: s.nextRev()}
	if i >= 0 {
		s.notes[i] = entry
		return
	}
	s.notes = append([]*noteEntry{entry}, s.notes...)
}

// UpdateNote applies patch plus a fresh updated_at. Flag changes must be
// legal lifecycle transitions.
func (s *NotesStore) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	const op = "update_note"
	if _, err := s.owner(op); err != nil {
		return model.Note{}, err
	}
	if patch.Empty() {
		return model.Note{}, s.fail(ctx, op, "Failed to update note", model.Invalid("nothing to update"))
	}
	return s.mutateNote(ctx, op, id, "", "Failed to update note", func(n model.Note) (model.NotePatch, error) {
		if err := checkFlagPatch(n, patch); err != nil {
			return model.NotePatch{}, err
		}
		if patch.FolderID != nil {
			if err := s.checkFolderRef(strings.TrimSpace(*patch.FolderID)); err != nil {
				return model.NotePatch{}, err
			}
		}
		return patch, nil
	})
}

// checkFlagPatch validates the lifecycle part of a free-form patch.
func checkFlagPatch(n model.Note, patch model.NotePatch) error {
	if patch.IsDeleted != nil && *patch.IsDeleted != n.IsDeleted {
		ev := model.EventTrash
		if !*patch.IsDeleted {
			ev = model.EventRestore
		}
		if _, _, err := n.Transition(ev); err != nil {
			return err
		}
		n.IsDeleted = *patch.IsDeleted
	}
	if patch.IsArchived != nil && *patch.IsArchived != n.IsArchived {
		ev := model.EventArchive
		if !*patch.IsArchived {
			ev = model.EventUnarchive
		}
		if _, _, err := n.Transition(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotesStore) transition(ctx context.Context, op, id string, ev model.LifecycleEvent, success, failure string) (model.Note, error) {
	return s.mutateNote(ctx, op, id, success, failure, func(n model.Note) (model.NotePatch, error) {
		_, patch, err := n.Transition(ev)
		return patch, err
	})
}

func (s *NotesStore) MoveToTrash(ctx context.Context, id string) (model.Note, error) {
	return s.transition(ctx, "trash_note", id, model.EventTrash, "Note moved to trash", "Failed to move note to trash")
}

func (s *NotesStore) RestoreFromTrash(ctx context.Context, id string) (model.Note, error) {
	return s.transition(ctx, "restore_note", id, model.EventRestore, "Note restored from trash", "Failed to restore note")
}

func (s *NotesStore) ArchiveNote(ctx context.Context, id string) (model.Note, error) {
	return s.transition(ctx, "archive_note", id, model.EventArchive, "Note archived", "Failed to archive note")
}

func (s *NotesStore) UnarchiveNote(ctx context.Context, id string) (model.Note, error) {
	return s.transition(ctx, "unarchive_note", id, model.EventUnarchive, "Note unarchived", "Failed to unarchive note")
}

// ToggleFavorite flips is_favorite. Legal in every state.
func (s *NotesStore) ToggleFavorite(ctx context.Context, id string) (model.Note, error) {
	return s.mutateNote(ctx, "favorite_note", id, "", "Failed to update favorite", func(n model.Note) (model.NotePatch, error) {
		return model.NotePatch{IsFavorite: model.BoolPtr(!n.IsFavorite)}, nil
	})
}

// MoveNote files the note under folderID; an empty folderID takes it out of
// any folder.
func (s *NotesStore) MoveNote(ctx context.Context, id, folderID string) (model.Note, error) {
	folderID = strings.TrimSpace(folderID)
	return s.mutateNote(ctx, "move_note", id, "Note moved", "Failed to move note", func(n model.Note) (model.NotePatch, error) {
		if err := s.checkFolderRef(folderID); err != nil {
			return model.NotePatch{}, err
		}
		return model.NotePatch{FolderID: model.StringPtr(folderID)}, nil
	})
}

// mutateNote runs the optimistic update cycle for one note. build is called
// under the lock with the current row and returns the patch to send; an
// error from it aborts before any remote call.
func (s *NotesStore) mutateNote(ctx context.Context, op, id, success, failure string, build func(model.Note) (model.NotePatch, error)) (model.Note, error) {
	ctx = detach(ctx)
	userID, err := s.owner(op)
	if err != nil {
		return model.Note{}, err
	}
	if isTempID(id) {
		return model.Note{}, s.fail(ctx, op, failure, fmt.Errorf("%w: %s", model.ErrNotePending, id))
	}

	s.mu.Lock()
	_, entry := s.findNote(id)
	if entry == nil {
		s.mu.Unlock()
		return model.Note{}, s.fail(ctx, op, failure, fmt.Errorf("note %s: %w", id, model.ErrNotFound))
	}
	patch, err := build(entry.note)
	if err != nil {
		s.mu.Unlock()
		return model.Note{}, s.fail(ctx, op, failure, err)
	}

	now := s.now().UTC()
	patch.UpdatedAt = &now
	previous, previousStatus := entry.note.Clone(), entry.status
	patch.Apply(&entry.note)
	entry.status = model.SyncPending
	rev := s.nextRev()
	entry.rev = rev
	epoch := s.epoch
	s.mu.Unlock()

	updated, err := s.notesRepo.UpdateNote(ctx, userID, id, patch)

	s.mu.Lock()
	if s.epoch == epoch {
		if _, entry := s.findNote(id); entry != nil {
			switch {
			case err != nil && entry.rev == rev:
				entry.note = previous
				entry.status = previousStatus
			case err == nil:
				entry.note = updated.Clone()
				if entry.rev == rev {
					entry.status = model.SyncConfirmed
				}
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return model.Note{}, s.fail(ctx, op, failure, err)
	}
	s.succeed(op, success)
	return updated.Clone(), nil
}

// DeleteNotePermanently removes the note everywhere and tombstones its id so
// no late response brings it back.
func (s *NotesStore) DeleteNotePermanently(ctx context.Context, id string) error {
	ctx = detach(ctx)
	const op = "delete_note"
	const failure = "Failed to delete note"
	userID, err := s.owner(op)
	if err != nil {
		return err
	}
	if isTempID(id) {
		return s.fail(ctx, op, failure, fmt.Errorf("%w: %s", model.ErrNotePending, id))
	}

	s.mu.Lock()
	i, entry := s.findNote(id)
	if entry == nil {
		s.mu.Unlock()
		return s.fail(ctx, op, failure, fmt.Errorf("note %s: %w", id, model.ErrNotFound))
	}
	if _, _, err := entry.note.Transition(model.EventPurge); err != nil {
		s.mu.Unlock()
		return s.fail(ctx, op, failure, err)
	}
	removed := *entry
	s.removeNoteAt(i)
	s.purged[id] = struct{}{}
	epoch := s.epoch
	s.mu.Unlock()

	err = s.notesRepo.DeleteNote(ctx, userID, id)
	if err != nil && model.Classify(err) == model.KindNotFound {
		// already gone remotely, keep it gone here
		log.Info().Str("note_id", id).Msg("note already deleted remotely")
		err = nil
	}

	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			delete(s.purged, id)
			if _, existing := s.findNote(id); existing == nil {
				s.insertNoteAt(i, &removed)
			}
		}
		s.mu.Unlock()
		return s.fail(ctx, op, failure, err)
	}

	s.succeed(op, "Note permanently deleted")
	return nil
}

// CreateFolder appends a pending folder and swaps in the stored row.
func (s *NotesStore) CreateFolder(ctx context.Context, name string) (model.Folder, error) {
	ctx = detach(ctx)
	const op = "create_folder"
	const failure = "Failed to create folder"
	userID, err := s.owner(op)
	if err != nil {
		return model.Folder{}, err
	}

	folder := model.NewFolder(userID, name, s.now().UTC())
	if folder.Name == "" {
		return model.Folder{}, s.fail(ctx, op, failure, model.Invalid("folder name is required"))
	}
	tempID := tempIDPrefix + uuid.NewString()

	s.mu.Lock()
	pending := folder
	pending.ID = tempID
	s.folders = append(s.folders, &folderEntry{folder: pending, status: model.SyncPending, rev: s.nextRev()})
	epoch := s.epoch
	s.mu.Unlock()

	created, err := s.foldersRepo.InsertFolder(ctx, folder)

	s.mu.Lock()
	if s.epoch == epoch {
		i, _ := s.findFolder(tempID)
		switch {
		case err != nil && i >= 0:
			s.folders = append(s.folders[:i:i], s.folders[i+1:]...)
		case err == nil && i >= 0:
			s.folders[i] = &folderEntry{folder: created, status: model.SyncConfirmed, rev: s.nextRev()}
		case err == nil:
			if _, existing := s.findFolder(created.ID); existing == nil {
				s.folders = append(s.folders, &folderEntry{folder: created, status: model.SyncConfirmed, rev: s.nextRev()})
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return model.Folder{}, s.fail(ctx, op, failure, err)
	}
	s.succeed(op, "Folder created")
	return created, nil
}

func (s *NotesStore) RenameFolder(ctx context.Context, id, name string) (model.Folder, error) {
	ctx = detach(ctx)
	const op = "rename_folder"
	const failure = "Failed to rename folder"
	userID, err := s.owner(op)
	if err != nil {
		return model.Folder{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Folder{}, s.fail(ctx, op, failure, model.Invalid("folder name is required"))
	}
	if isTempID(id) {
		return model.Folder{}, s.fail(ctx, op, failure, fmt.Errorf("%w: %s", model.ErrNotePending, id))
	}

	s.mu.Lock()
	_, entry := s.findFolder(id)
	if entry == nil {
		s.mu.Unlock()
		return model.Folder{}, s.fail(ctx, op, failure, fmt.Errorf("folder %s: %w", id, model.ErrNotFound))
	}
	previous, previousStatus := entry.folder, entry.status
	entry.folder.Name = name
	entry.folder.UpdatedAt = s.now().UTC()
	entry.status = model.SyncPending
	rev := s.nextRev()
	entry.rev = rev
	epoch := s.epoch
	s.mu.Unlock()

	renamed, err := s.foldersRepo.RenameFolder(ctx, userID, id, name)

	s.mu.Lock()
	if s.epoch == epoch {
		if _, entry := s.findFolder(id); entry != nil {
			switch {
			case err != nil && entry.rev == rev:
				entry.folder = previous
				entry.status = previousStatus
			case err == nil:
				entry.folder = renamed
				if entry.rev == rev {
					entry.status = model.SyncConfirmed
				}
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return model.Folder{}, s.fail(ctx, op, failure, err)
	}
	s.succeed(op, "Folder renamed")
	return renamed, nil
}

type orphanedNote struct {
	id       string
	previous model.Note
	status   model.SyncStatus
	rev      uint64
}

// DeleteFolder takes every member note out of the folder, then deletes the
// folder row. Notes are never deleted with their folder. If clearing fails
// nothing changes; if only the folder delete fails the folder comes back
// while its former notes stay orphaned, matching the remote state.
func (s *NotesStore) DeleteFolder(ctx context.Context, id string) error {
	ctx = detach(ctx)
	const op = "delete_folder"
	const failure = "Failed to delete folder"
	userID, err := s.owner(op)
	if err != nil {
		return err
	}
	if isTempID(id) {
		return s.fail(ctx, op, failure, fmt.Errorf("%w: %s", model.ErrNotePending, id))
	}

	s.mu.Lock()
	fi, fentry := s.findFolder(id)
	if fentry == nil {
		s.mu.Unlock()
		return s.fail(ctx, op, failure, fmt.Errorf("folder %s: %w", id, model.ErrNotFound))
	}
	removedFolder := *fentry
	s.folders = append(s.folders[:fi:fi], s.folders[fi+1:]...)

	now := s.now().UTC()
	var orphans []orphanedNote
	for _, e := range s.notes {
		if !e.note.InFolder(id) {
			continue
		}
		orphan := orphanedNote{id: e.note.ID, previous: e.note.Clone(), status: e.status, rev: s.nextRev()}
		e.note.FolderID = nil
		e.note.UpdatedAt = now
		e.status = model.SyncPending
		e.rev = orphan.rev
		orphans = append(orphans, orphan)
	}
	epoch := s.epoch
	s.mu.Unlock()

	restoreFolder := func() {
		if _, existing := s.findFolder(id); existing == nil {
			s.insertFolderAt(fi, &removedFolder)
		}
	}

	if err := s.notesRepo.ClearFolder(ctx, userID, id); err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			restoreFolder()
			for _, o := range orphans {
				if _, e := s.findNote(o.id); e != nil && e.rev == o.rev {
					e.note = o.previous
					e.status = o.status
				}
			}
		}
		s.mu.Unlock()
		return s.fail(ctx, op, failure, err)
	}

	err = s.foldersRepo.DeleteFolder(ctx, userID, id)
	if err != nil && model.Classify(err) == model.KindNotFound {
		err = nil
	}

	s.mu.Lock()
	if s.epoch == epoch {
		if err != nil {
			restoreFolder()
		}
		for _, o := range orphans {
			if _, e := s.findNote(o.id); e != nil && e.rev == o.rev {
				e.status = model.SyncConfirmed
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return s.fail(ctx, op, failure, err)
	}
	s.succeed(op, "Folder deleted")
	return nil
}

// Notes returns a copy of every local note in store order.
func (s *NotesStore) Notes() []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Note, 0, len(s.notes))
	for _, e := range s.notes {
		out = append(out, e.note.Clone())
	}
	return out
}

func (s *NotesStore) Note(id string) (model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, e := s.findNote(id)
	if e == nil {
		return model.Note{}, false
	}
	return e.note.Clone(), true
}

// Status reports whether the local copy of a note or folder is confirmed.
func (s *NotesStore) Status(id string) (model.SyncStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, e := s.findNote(id); e != nil {
		return e.status, true
	}
	if _, e := s.findFolder(id); e != nil {
		return e.status, true
	}
	return "", false
}

func (s *NotesStore) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Folder, 0, len(s.folders))
	for _, e := range s.folders {
		out = append(out, e.folder)
	}
	return out
}

// UserFolders leaves out legacy root rows; the system views replace them.
func (s *NotesStore) UserFolders() []model.Folder {
	folders := s.Folders()
	out := folders[:0]
	for _, f := range folders {
		if !f.IsRoot {
			out = append(out, f)
		}
	}
	return out
}

func (s *NotesStore) Folder(id string) (model.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, e := s.findFolder(id)
	if e == nil {
		return model.Folder{}, false
	}
	return e.folder, true
}

func (s *NotesStore) View(v View) []model.Note {
	return Filter(s.Notes(), v)
}

func (s *NotesStore) Counts() model.ViewCounts {
	return Counts(s.Notes())
}
