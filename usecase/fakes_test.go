package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"notespace/model"
	"notespace/services"
)

// fakeTables is an in-memory remote. Set failNext to make the next call of
// an operation fail; set gate to hold a call until the channel is closed.
type fakeTables struct {
	mu       sync.Mutex
	notes    map[string]model.Note
	folders  map[string]model.Folder
	taken    map[string]bool
	seq      int
	calls    map[string]int
	failNext map[string]error
	gate     map[string]chan struct{}
	pingErr  error
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		notes:    make(map[string]model.Note),
		folders:  make(map[string]model.Folder),
		taken:    make(map[string]bool),
		calls:    make(map[string]int),
		failNext: make(map[string]error),
		gate:     make(map[string]chan struct{}),
	}
}

// enter records a call of op. Like the HTTP backend, a call whose context
// is done by the time it would answer fails as unreachable.
func (f *fakeTables) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gate[op]
	delete(f.gate, op)
	err := f.failNext[op]
	delete(f.failNext, op)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err == nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", model.ErrOffline, ctx.Err())
	}
	return err
}

func (f *fakeTables) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = err
}

// hold makes the next call of op block until the returned func is called.
func (f *fakeTables) hold(op string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gate[op] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeTables) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTables) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for op, c := range f.calls {
		if op != "ping" {
			n += c
		}
	}
	return n
}

func (f *fakeTables) seed(notes ...model.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range notes {
		f.notes[n.ID] = n
	}
}

func (f *fakeTables) seedFolders(folders ...model.Folder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fo := range folders {
		f.folders[fo.ID] = fo
	}
}

func (f *fakeTables) remoteNote(id string) (model.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	return n, ok
}

func (f *fakeTables) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	if err := f.enter(ctx, "list_notes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Note
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeTables) InsertNote(ctx context.Context, note model.Note) (model.Note, error) {
	if err := f.enter(ctx, "insert_note"); err != nil {
		return model.Note{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	note.ID = fmt.Sprintf("note-%d", f.seq)
	f.notes[note.ID] = note.Clone()
	return note, nil
}

func (f *fakeTables) UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error) {
	if err := f.enter(ctx, "update_note"); err != nil {
		return model.Note{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[noteID]
	if !ok || n.UserID != userID {
		return model.Note{}, fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	patch.Apply(&n)
	f.notes[noteID] = n
	return n.Clone(), nil
}

func (f *fakeTables) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := f.enter(ctx, "delete_note"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[noteID]; !ok {
		return fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	delete(f.notes, noteID)
	return nil
}

func (f *fakeTables) ClearFolder(ctx context.Context, userID, folderID string) error {
	if err := f.enter(ctx, "clear_folder"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.notes {
		if n.UserID == userID && n.InFolder(folderID) {
			n.FolderID = nil
			f.notes[id] = n
		}
	}
	return nil
}

func (f *fakeTables) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	if err := f.enter(ctx, "list_folders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Folder
	for _, fo := range f.folders {
		if fo.UserID == userID {
			out = append(out, fo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTables) InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	if err := f.enter(ctx, "insert_folder"); err != nil {
		return model.Folder{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	folder.ID = fmt.Sprintf("folder-%d", f.seq)
	f.folders[folder.ID] = folder
	return folder, nil
}

func (f *fakeTables) RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error) {
	if err := f.enter(ctx, "rename_folder"); err != nil {
		return model.Folder{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fo, ok := f.folders[folderID]
	if !ok {
		return model.Folder{}, fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	fo.Name = name
	f.folders[folderID] = fo
	return fo, nil
}

func (f *fakeTables) DeleteFolder(ctx context.Context, userID, folderID string) error {
	if err := f.enter(ctx, "delete_folder"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.folders[folderID]; !ok {
		return fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	delete(f.folders, folderID)
	return nil
}

func (f *fakeTables) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if err := f.enter(ctx, "username_taken"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taken[username], nil
}

func (f *fakeTables) setPing(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

func (f *fakeTables) Ping(ctx context.Context) error {
	f.enter(ctx, "ping")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

// fakeSession stands in for the session manager.
type fakeSession struct {
	mu      sync.Mutex
	user    *model.User
	expired int
}

func signedIn(id string) *fakeSession {
	return &fakeSession{user: &model.User{ID: id, Email: id + "@example.com"}}
}

func (s *fakeSession) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *fakeSession) Expire(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.expired++
}

func (s *fakeSession) signOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// fakeAuth is a scripted AuthClient.
type fakeAuth struct {
	mu        sync.Mutex
	session   *model.Session
	events    chan services.AuthEvent
	signInErr error
	signUp    *services.SignUpResult
	verifyErr error
	getUser   func(token string) (*model.User, error)
	refresh   func(token string) (*model.Session, error)
	signOuts  []string
	calls     int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{events: make(chan services.AuthEvent, 8)}
}

func testSession(userID, token string) *model.Session {
	return &model.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         model.User{ID: userID, Email: userID + "@example.com"},
	}
}

func (a *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.signInErr != nil {
		return nil, a.signInErr
	}
	a.session = testSession("u-"+email, "token-"+email)
	s := *a.session
	return &s, nil
}

func (a *fakeAuth) SignUp(ctx context.Context, email, password, username string) (*services.SignUpResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.signUp != nil {
		return a.signUp, nil
	}
	return &services.SignUpResult{
		User:                 model.User{ID: "u-" + email, Email: email, Username: username},
		ConfirmationRequired: true,
	}, nil
}

func (a *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.signOuts = append(a.signOuts, accessToken)
	return nil
}

func (a *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.refresh != nil {
		return a.refresh(refreshToken)
	}
	return nil, model.ErrSessionExpired
}

func (a *fakeAuth) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.getUser != nil {
		return a.getUser(accessToken)
	}
	return nil, model.ErrSessionExpired
}

func (a *fakeAuth) VerifyOTP(ctx context.Context, tokenHash, verifyType string) (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return testSession("u-confirmed", "token-confirmed"), nil
}

func (a *fakeAuth) SetSession(session *model.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = session
}

func (a *fakeAuth) Events() <-chan services.AuthEvent {
	return a.events
}

func (a *fakeAuth) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
