package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notespace/config"
	"notespace/dto"
	"notespace/middleware"
	"notespace/model"
	"notespace/services"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitValidator()
}

type testApp struct {
	router   *gin.Engine
	tables   *memoryTables
	sessions *usecase.SessionManager
	store    *usecase.NotesStore
	feed     *services.NotificationFeed
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tables := newMemoryTables()
	feed := services.NewNotificationFeed(50)
	sessions := usecase.NewSessionManager(newStubAuth(), tables, tables, nil, nil, feed, usecase.SessionManagerOptions{})
	store := usecase.NewNotesStore(tables, tables, sessions, feed)
	sessions.OnChange(func(*model.Session) { store.Reset() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sessions.Start(ctx)

	stats := NewStatsHandler(sessions, feed, config.BackendPostgrest)

	r := gin.New()
	r.GET("/health", stats.Health)

	api := r.Group("/api")
	api.GET("/session", func(c *gin.Context) { GetSessionHandler(c, sessions) })
	api.GET("/notifications", stats.Notifications)

	auth := api.Group("/auth", middleware.WaitForSession(sessions))
	auth.POST("/signin", func(c *gin.Context) { SignInHandler(c, sessions) })
	auth.POST("/signup", func(c *gin.Context) { SignUpHandler(c, sessions) })
	auth.POST("/signout", func(c *gin.Context) { SignOutHandler(c, sessions) })
	auth.GET("/confirm", func(c *gin.Context) { ConfirmEmailHandler(c, sessions) })

	protected := api.Group("", middleware.WaitForSession(sessions), middleware.AuthMiddleware(sessions))
	protected.GET("/counts", func(c *gin.Context) { GetCountsHandler(c, store) })
	protected.GET("/notes", func(c *gin.Context) { GetNotesHandler(c, store) })
	protected.POST("/notes/refresh", func(c *gin.Context) { RefreshNotesHandler(c, store) })
	protected.POST("/notes", middleware.ValidateJSON[dto.CreateNoteRequest](), func(c *gin.Context) { CreateNoteHandler(c, store) })
	protected.GET("/notes/:id", func(c *gin.Context) { GetNoteHandler(c, store) })
	protected.PATCH("/notes/:id", func(c *gin.Context) { UpdateNoteHandler(c, store) })
	protected.DELETE("/notes/:id", func(c *gin.Context) { DeleteNoteHandler(c, store) })
	protected.POST("/notes/:id/trash", func(c *gin.Context) { TrashNoteHandler(c, store) })
	protected.POST("/notes/:id/restore", func(c *gin.Context) { RestoreNoteHandler(c, store) })
	protected.POST("/notes/:id/archive", func(c *gin.Context) { ArchiveNoteHandler(c, store) })
	protected.POST("/notes/:id/favorite", func(c *gin.Context) { ToggleFavoriteHandler(c, store) })
	protected.POST("/notes/:id/move", func(c *gin.Context) { MoveNoteHandler(c, store) })
	protected.GET("/folders", func(c *gin.Context) { GetFoldersHandler(c, store) })
	protected.POST("/folders", func(c *gin.Context) { CreateFolderHandler(c, store) })
	protected.PATCH("/folders/:id", func(c *gin.Context) { RenameFolderHandler(c, store) })
	protected.DELETE("/folders/:id", func(c *gin.Context) { DeleteFolderHandler(c, store) })

	return &testApp{router: r, tables: tables, sessions: sessions, store: store, feed: feed}
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *testApp) signIn(t *testing.T) {
	t.Helper()
	w, _ := a.do(t, http.MethodPost, "/api/auth/signin", model.Credentials{Email: "ada@example.com", Password: "secret1!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSessionHandlers(t *testing.T) {
	app := newTestApp(t)

	t.Run("Anonymous snapshot", func(t *testing.T) {
		w, env := app.do(t, http.MethodGet, "/api/session", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		session := decode[dto.SessionResponse](t, env.Data)
		assert.Equal(t, model.SessionAnonymous, session.State)
		assert.False(t, session.Loading)
		assert.True(t, session.Connected)
		assert.Contains(t, session.Links, "signin")
	})

	t.Run("Invalid sign in body", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/auth/signin", gin.H{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, env.Error)
	})

	t.Run("Wrong password", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/auth/signin", model.Credentials{Email: "ada@example.com", Password: "wrong-pass1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid login credentials", env.Error)
	})

	t.Run("Sign in", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/auth/signin", model.Credentials{Email: "Ada@Example.com", Password: "secret1!"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Welcome back!", env.Message)

		session := decode[dto.SessionResponse](t, env.Data)
		assert.Equal(t, model.SessionAuthenticated, session.State)
		require.NotNil(t, session.User)
		assert.Equal(t, "ada@example.com", session.User.Email)
		assert.Contains(t, session.DeviceInfo, "Chrome")
	})

	t.Run("Sign out", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/auth/signout", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Signed out successfully", env.Message)
		assert.Equal(t, model.SessionAnonymous, app.sessions.State())
	})
}

func TestSignUpHandler(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name       string
		body       model.SignUpInput
		wantStatus int
		wantError  string
	}{
		{
			name:       "Weak password",
			body:       model.SignUpInput{Email: "ada@example.com", Username: "ada", Password: "password", ConfirmPassword: "password"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Passwords differ",
			body:       model.SignUpInput{Email: "ada@example.com", Username: "ada", Password: "secret1!", ConfirmPassword: "secret2!"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Passwords do not match",
		},
		{
			name:       "Username taken",
			body:       model.SignUpInput{Email: "ada@example.com", Username: "taken", Password: "secret1!", ConfirmPassword: "secret1!"},
			wantStatus: http.StatusConflict,
			wantError:  "Username is already taken",
		},
		{
			name:       "Confirmation required",
			body:       model.SignUpInput{Email: "ada@example.com", Username: "ada", Password: "secret1!", ConfirmPassword: "secret1!"},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := app.do(t, http.MethodPost, "/api/auth/signup", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, env.Error)
			}
			if w.Code == http.StatusCreated {
				resp := decode[dto.SignUpResponse](t, env.Data)
				assert.True(t, resp.ConfirmationRequired)
				assert.Equal(t, "ada", resp.User.Username)
				assert.Contains(t, env.Message, "check your email")
			}
		})
	}
}

func TestConfirmEmailHandler(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/auth/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid confirmation link.", env.Error)

	w, env = app.do(t, http.MethodGet, "/api/auth/confirm?token_hash=expired&type=signup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to confirm email. Please try again or contact support.", env.Error)

	w, env = app.do(t, http.MethodGet, "/api/auth/confirm?token_hash=abc&type=signup", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Email confirmed successfully!", env.Message)
	assert.Equal(t, model.SessionAuthenticated, app.sessions.State())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/notes", "/api/counts", "/api/folders"} {
		w, env := app.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Please sign in to access your notes", env.Error)
	}
}

func TestNoteHandlers(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t)

	var noteID string

	t.Run("Create", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/notes", gin.H{"content": "hello"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "Note created", env.Message)

		note := decode[dto.NoteResponse](t, env.Data)
		assert.Equal(t, "note-1", note.ID)
		assert.Equal(t, model.DefaultNoteTitle, note.Title)
		assert.Equal(t, "active", note.State)
		assert.Equal(t, model.SyncConfirmed, note.SyncStatus)
		assert.Contains(t, note.Links, "trash")
		noteID = note.ID
	})

	t.Run("Inbox lists it", func(t *testing.T) {
		w, env := app.do(t, http.MethodGet, "/api/notes", nil)
		require.Equal(t, http.StatusOK, w.Code)

		view := decode[dto.NotesViewResponse](t, env.Data)
		assert.Equal(t, "inbox", view.View)
		assert.Equal(t, 1, view.Count)
	})

	t.Run("Unknown view", func(t *testing.T) {
		w, _ := app.do(t, http.MethodGet, "/api/notes?view=starred", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = app.do(t, http.MethodGet, "/api/notes?view=folder", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update", func(t *testing.T) {
		w, env := app.do(t, http.MethodPatch, "/api/notes/"+noteID, gin.H{"title": "Groceries"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Groceries", decode[dto.NoteResponse](t, env.Data).Title)
	})

	t.Run("Favorite", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/notes/"+noteID+"/favorite", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Added to favorites", env.Message)
	})

	t.Run("Trash", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/notes/"+noteID+"/trash", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "trashed", decode[dto.NoteResponse](t, env.Data).State)

		w, _ = app.do(t, http.MethodPost, "/api/notes/"+noteID+"/archive", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Counts", func(t *testing.T) {
		w, env := app.do(t, http.MethodGet, "/api/counts", nil)
		require.Equal(t, http.StatusOK, w.Code)

		counts := decode[dto.CountsResponse](t, env.Data)
		assert.Equal(t, 0, counts.Inbox)
		assert.Equal(t, 0, counts.Favorites)
		assert.Equal(t, 1, counts.Trash)
	})

	t.Run("Restore", func(t *testing.T) {
		w, _ := app.do(t, http.MethodPost, "/api/notes/"+noteID+"/restore", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w, env := app.do(t, http.MethodDelete, "/api/notes/"+noteID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Note permanently deleted", env.Message)

		w, _ = app.do(t, http.MethodGet, "/api/notes/"+noteID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Offline create", func(t *testing.T) {
		app.tables.setFailure(model.ErrOffline)
		defer app.tables.setFailure(nil)

		w, env := app.do(t, http.MethodPost, "/api/notes", gin.H{"title": "Later"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Unable to connect to the server. Please check your internet connection.", env.Error)
		assert.Empty(t, app.store.Notes())
	})
}

func TestFolderHandlers(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t)

	w, env := app.do(t, http.MethodPost, "/api/folders", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code, env.Error)

	w, env = app.do(t, http.MethodPost, "/api/folders", gin.H{"name": "Work"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	folder := decode[dto.FolderResponse](t, env.Data)
	assert.Equal(t, "Work", folder.Name)

	w, _ = app.do(t, http.MethodPost, "/api/notes", gin.H{"title": "Plan", "folder_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = app.do(t, http.MethodPost, "/api/notes", gin.H{"title": "Plan"})
	require.Equal(t, http.StatusCreated, w.Code)
	note := decode[dto.NoteResponse](t, env.Data)

	w, env = app.do(t, http.MethodPost, "/api/notes/"+note.ID+"/move", gin.H{"folder_id": folder.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Note moved", env.Message)

	w, env = app.do(t, http.MethodGet, "/api/notes?view=folder&folder_id="+folder.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.NotesViewResponse](t, env.Data).Count)

	w, env = app.do(t, http.MethodGet, "/api/folders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Folders []dto.FolderResponse `json:"folders"`
		Count   int                  `json:"count"`
	}](t, env.Data)
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, 1, listed.Folders[0].NoteCount)

	w, _ = app.do(t, http.MethodPatch, "/api/folders/"+folder.ID, gin.H{"name": "Office"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/folders/"+folder.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	moved, ok := app.store.Note(note.ID)
	require.True(t, ok)
	assert.False(t, moved.HasFolder())
}

func TestStatsHandler(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "postgrest", health["backend"])

	app.feed.Notify(model.LevelInfo, "hello")
	w, env = app.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[struct {
		Notifications []model.Notification `json:"notifications"`
		Count         int                  `json:"count"`
	}](t, env.Data)
	assert.Equal(t, 1, feed.Count)
	assert.Equal(t, "hello", feed.Notifications[0].Message)

	_, env = app.do(t, http.MethodGet, "/api/notifications", nil)
	assert.Contains(t, string(env.Data), `"count":0`)
}
