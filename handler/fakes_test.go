package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"notespace/model"
	"notespace/services"
)

// memoryTables is a minimal remote for driving the handlers end to end.
type memoryTables struct {
	mu      sync.Mutex
	notes   map[string]model.Note
	folders map[string]model.Folder
	seq     int
	failAll error
}

func newMemoryTables() *memoryTables {
	return &memoryTables{
		notes:   make(map[string]model.Note),
		folders: make(map[string]model.Folder),
	}
}

func (m *memoryTables) setFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

func (m *memoryTables) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []model.Note
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memoryTables) InsertNote(ctx context.Context, note model.Note) (model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Note{}, m.failAll
	}
	m.seq++
	note.ID = fmt.Sprintf("note-%d", m.seq)
	m.notes[note.ID] = note.Clone()
	return note, nil
}

func (m *memoryTables) UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Note{}, m.failAll
	}
	n, ok := m.notes[noteID]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	patch.Apply(&n)
	m.notes[noteID] = n
	return n.Clone(), nil
}

func (m *memoryTables) DeleteNote(ctx context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.notes, noteID)
	return nil
}

func (m *memoryTables) ClearFolder(ctx context.Context, userID, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.notes {
		if n.InFolder(folderID) {
			n.FolderID = nil
			m.notes[id] = n
		}
	}
	return nil
}

func (m *memoryTables) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []model.Folder
	for _, f := range m.folders {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryTables) InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Folder{}, m.failAll
	}
	m.seq++
	folder.ID = fmt.Sprintf("folder-%d", m.seq)
	m.folders[folder.ID] = folder
	return folder, nil
}

func (m *memoryTables) RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[folderID]
	if !ok {
		return model.Folder{}, model.ErrNotFound
	}
	f.Name = name
	m.folders[folderID] = f
	return f, nil
}

func (m *memoryTables) DeleteFolder(ctx context.Context, userID, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.folders, folderID)
	return nil
}

func (m *memoryTables) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return username == "taken", nil
}

func (m *memoryTables) Ping(ctx context.Context) error {
	return nil
}

// stubAuth signs in any email whose password is not "wrong-pass1".
type stubAuth struct {
	events chan services.AuthEvent
}

func newStubAuth() *stubAuth {
	return &stubAuth{events: make(chan services.AuthEvent)}
}

func stubSession(email string) *model.Session {
	return &model.Session{
		AccessToken:  "token-" + email,
		RefreshToken: "refresh-" + email,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         model.User{ID: "user-" + email, Email: email},
	}
}

func (a *stubAuth) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	if password == "wrong-pass1" {
		return nil, &model.RemoteError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return stubSession(email), nil
}

func (a *stubAuth) SignUp(ctx context.Context, email, password, username string) (*services.SignUpResult, error) {
	return &services.SignUpResult{
		User:                 model.User{ID: "user-" + email, Email: email, Username: username},
		ConfirmationRequired: true,
	}, nil
}

func (a *stubAuth) SignOut(ctx context.Context, accessToken string) error { return nil }

func (a *stubAuth) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	return nil, model.ErrSessionExpired
}

func (a *stubAuth) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	return nil, model.ErrSessionExpired
}

func (a *stubAuth) VerifyOTP(ctx context.Context, tokenHash, verifyType string) (*model.Session, error) {
	if tokenHash == "expired" {
		return nil, &model.RemoteError{Status: 403, Code: "otp_expired", Message: "Email link is invalid or has expired"}
	}
	return stubSession("confirmed@example.com"), nil
}

func (a *stubAuth) SetSession(session *model.Session) {}

func (a *stubAuth) Events() <-chan services.AuthEvent { return a.events }
