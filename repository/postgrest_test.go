package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notespace/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgrest(t *testing.T, handler http.HandlerFunc) (*PostgrestTables, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tables := NewPostgrestTables(srv.URL+"/", "anon-key", 2*time.Second, TokenFunc(func() string { return "user-token" }))
	return tables, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestPostgrestListNotes(t *testing.T) {
	tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/notes", r.URL.Path)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "updated_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "n2", "user_id": "u1", "title": "Second", "folder_id": "f1", "is_favorite": true, "updated_at": "2024-05-02T10:00:00Z", "created_at": "2024-05-01T10:00:00Z"},
			{"id": "n1", "user_id": "u1", "title": "First", "folder_id": nil, "is_archived": true, "updated_at": "2024-05-01T10:00:00Z", "created_at": "2024-05-01T10:00:00Z"},
		})
	})

	notes, err := tables.ListNotes(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "n2", notes[0].ID)
	assert.True(t, notes[0].IsFavorite)
	assert.True(t, notes[0].InFolder("f1"))
	assert.Nil(t, notes[1].FolderID)
	assert.True(t, notes[1].IsArchived)
}

func TestPostgrestInsertNote(t *testing.T) {
	tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		body, _ := io.ReadAll(r.Body)
		var rows []map[string]any
		assert.NoError(t, json.Unmarshal(body, &rows))
		if !assert.Len(t, rows, 1) {
			return
		}
		_, hasID := rows[0]["id"]
		assert.False(t, hasID, "id is assigned by the service")
		assert.Equal(t, "Untitled", rows[0]["title"])

		rows[0]["id"] = "generated"
		writeJSON(w, http.StatusCreated, rows)
	})

	note := model.NewNote("u1", model.NoteInput{}, time.Now().UTC())
	note.ID = "local-123"

	created, err := tables.InsertNote(context.Background(), note)
	require.NoError(t, err)
	assert.Equal(t, "generated", created.ID)
	assert.Equal(t, "u1", created.UserID)
}

func TestPostgrestUpdateNote(t *testing.T) {
	t.Run("Sends only patched columns", func(t *testing.T) {
		tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "eq.n1", r.URL.Query().Get("id"))
			assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))

			var fields map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
			assert.Equal(t, map[string]any{"folder_id": nil}, fields)

			writeJSON(w, http.StatusOK, []map[string]any{{"id": "n1", "user_id": "u1", "title": "A"}})
		})

		note, err := tables.UpdateNote(context.Background(), "u1", "n1", model.NotePatch{FolderID: model.StringPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "n1", note.ID)
	})

	t.Run("No row matched", func(t *testing.T) {
		tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		})

		_, err := tables.UpdateNote(context.Background(), "u1", "n1", model.NotePatch{Title: model.StringPtr("A")})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestPostgrestErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         any
		expectedKind model.ErrorKind
		expectedMsg  string
	}{
		{
			name:         "Expired token",
			status:       http.StatusUnauthorized,
			body:         map[string]string{"code": "PGRST301", "message": "JWT expired"},
			expectedKind: model.KindSessionExpired,
		},
		{
			name:         "Conflict",
			status:       http.StatusConflict,
			body:         map[string]string{"code": "23505", "message": "duplicate key value violates unique constraint"},
			expectedKind: model.KindRejected,
			expectedMsg:  "duplicate key value violates unique constraint",
		},
		{
			name:         "Plain text",
			status:       http.StatusInternalServerError,
			body:         "upstream broke",
			expectedKind: model.KindRejected,
			expectedMsg:  "\"upstream broke\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := tables.ListFolders(context.Background(), "u1")
			require.Error(t, err)
			assert.Equal(t, tt.expectedKind, model.Classify(err))
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, model.UserMessage(err))
			}
		})
	}
}

func TestPostgrestDeleteNote(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			writeJSON(w, http.StatusOK, []map[string]string{{"id": "n1"}})
		})
		assert.NoError(t, tables.DeleteNote(context.Background(), "u1", "n1"))
	})

	t.Run("Already gone", func(t *testing.T) {
		tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		})
		assert.ErrorIs(t, tables.DeleteNote(context.Background(), "u1", "n1"), model.ErrNotFound)
	})
}

func TestPostgrestClearFolder(t *testing.T) {
	tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.f1", r.URL.Query().Get("folder_id"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var fields map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		v, ok := fields["folder_id"]
		assert.True(t, ok)
		assert.Nil(t, v)

		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, tables.ClearFolder(context.Background(), "u1", "f1"))
}

func TestPostgrestUsernameTaken(t *testing.T) {
	tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		if r.URL.Query().Get("username") == "eq.ada" {
			writeJSON(w, http.StatusOK, []map[string]string{{"username": "ada"}})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	})

	taken, err := tables.UsernameTaken(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = tables.UsernameTaken(context.Background(), "grace")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPostgrestPing(t *testing.T) {
	t.Run("Reachable", func(t *testing.T) {
		tables, _ := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, []any{})
		})
		assert.NoError(t, tables.Ping(context.Background()))
	})

	t.Run("Unreachable", func(t *testing.T) {
		tables, srv := newTestPostgrest(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		err := tables.Ping(context.Background())
		assert.Equal(t, model.KindOffline, model.Classify(err))
	})

	t.Run("Anonymous uses the api key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []any{})
		}))
		defer srv.Close()

		tables := NewPostgrestTables(srv.URL, "anon-key", time.Second, TokenFunc(func() string { return "" }))
		assert.NoError(t, tables.Ping(context.Background()))
	})
}
