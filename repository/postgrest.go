package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notespace/model"
	"notespace/utils"
)

const (
	notesTable    = "notes"
	foldersTable  = "folders"
	profilesTable = "profiles"

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
)

// PostgrestTables talks to the hosted service's REST endpoint
// (<base>/rest/v1/<table>). Row-level security on the service side is what
// actually scopes rows; the user_id filters are sent anyway so that the
// listing order and counts never mix owners.
type PostgrestTables struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tokens  TokenSource
}

func NewPostgrestTables(baseURL, apiKey string, timeout time.Duration, tokens TokenSource) *PostgrestTables {
	return &PostgrestTables{
		baseURL: strings.TrimRight(baseURL, "/") + "/rest/v1/",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (r *PostgrestTables) do(ctx context.Context, method, table string, query url.Values, body any, prefer string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := r.baseURL + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", table, err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	token := r.apiKey
	if r.tokens != nil {
		if t := r.tokens.AccessToken(); t != "" {
			token = t
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", model.ErrOffline, method, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodePostgrestError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func decodePostgrestError(resp *http.Response) error {
	var pgErr postgrestError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &pgErr); err != nil || pgErr.Message == "" {
		pgErr.Message = strings.TrimSpace(string(data))
		if pgErr.Message == "" {
			pgErr.Message = http.StatusText(resp.StatusCode)
		}
	}

	remoteErr := &model.RemoteError{Status: resp.StatusCode, Code: pgErr.Code, Message: pgErr.Message}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", model.ErrSessionExpired, remoteErr)
	}
	return remoteErr
}

func eq(v string) string { return "eq." + v }

func (r *PostgrestTables) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	timer := utils.TrackRemoteCall("list", notesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", eq(userID))
	q.Set("order", "updated_at.desc")

	var notes []model.Note
	if err := r.do(ctx, http.MethodGet, notesTable, q, nil, "", &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *PostgrestTables) InsertNote(ctx context.Context, note model.Note) (model.Note, error) {
	timer := utils.TrackRemoteCall("insert", notesTable)
	defer timer.ObserveDuration()

	note.ID = ""
	var rows []model.Note
	if err := r.do(ctx, http.MethodPost, notesTable, url.Values{"select": {"*"}}, []model.Note{note}, preferRepresentation, &rows); err != nil {
		return model.Note{}, err
	}
	if len(rows) == 0 {
		return model.Note{}, &model.RemoteError{Status: http.StatusInternalServerError, Message: "insert returned no row"}
	}
	return rows[0], nil
}

func (r *PostgrestTables) UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error) {
	timer := utils.TrackRemoteCall("update", notesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("id", eq(noteID))
	q.Set("user_id", eq(userID))
	q.Set("select", "*")

	var rows []model.Note
	if err := r.do(ctx, http.MethodPatch, notesTable, q, patch.Fields(), preferRepresentation, &rows); err != nil {
		return model.Note{}, err
	}
	if len(rows) == 0 {
		return model.Note{}, fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	return rows[0], nil
}

func (r *PostgrestTables) DeleteNote(ctx context.Context, userID, noteID string) error {
	timer := utils.TrackRemoteCall("delete", notesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("id", eq(noteID))
	q.Set("user_id", eq(userID))
	q.Set("select", "id")

	var rows []struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodDelete, notesTable, q, nil, preferRepresentation, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	return nil
}

func (r *PostgrestTables) ClearFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("clear_folder", notesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("user_id", eq(userID))
	q.Set("folder_id", eq(folderID))

	body := map[string]any{
		"folder_id":  nil,
		"updated_at": time.Now().UTC(),
	}
	return r.do(ctx, http.MethodPatch, notesTable, q, body, preferMinimal, nil)
}

func (r *PostgrestTables) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	timer := utils.TrackRemoteCall("list", foldersTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", eq(userID))
	q.Set("order", "created_at.asc")

	var folders []model.Folder
	if err := r.do(ctx, http.MethodGet, foldersTable, q, nil, "", &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *PostgrestTables) InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	timer := utils.TrackRemoteCall("insert", foldersTable)
	defer timer.ObserveDuration()

	folder.ID = ""
	var rows []model.Folder
	if err := r.do(ctx, http.MethodPost, foldersTable, url.Values{"select": {"*"}}, []model.Folder{folder}, preferRepresentation, &rows); err != nil {
		return model.Folder{}, err
	}
	if len(rows) == 0 {
		return model.Folder{}, &model.RemoteError{Status: http.StatusInternalServerError, Message: "insert returned no row"}
	}
	return rows[0], nil
}

func (r *PostgrestTables) RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error) {
	timer := utils.TrackRemoteCall("update", foldersTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("id", eq(folderID))
	q.Set("user_id", eq(userID))
	q.Set("select", "*")

	body := map[string]any{
		"name":       name,
		"updated_at": time.Now().UTC(),
	}

	var rows []model.Folder
	if err := r.do(ctx, http.MethodPatch, foldersTable, q, body, preferRepresentation, &rows); err != nil {
		return model.Folder{}, err
	}
	if len(rows) == 0 {
		return model.Folder{}, fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	return rows[0], nil
}

func (r *PostgrestTables) DeleteFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("delete", foldersTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("id", eq(folderID))
	q.Set("user_id", eq(userID))
	q.Set("select", "id")

	var rows []struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodDelete, foldersTable, q, nil, preferRepresentation, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	return nil
}

func (r *PostgrestTables) UsernameTaken(ctx context.Context, username string) (bool, error) {
	timer := utils.TrackRemoteCall("select", profilesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("select", "username")
	q.Set("username", eq(username))

	var rows []model.Profile
	if err := r.do(ctx, http.MethodGet, profilesTable, q, nil, "", &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Ping selects at most one id from notes, the same probe the web client used.
func (r *PostgrestTables) Ping(ctx context.Context) error {
	timer := utils.TrackRemoteCall("ping", notesTable)
	defer timer.ObserveDuration()

	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	var rows []json.RawMessage
	return r.do(ctx, http.MethodGet, notesTable, q, nil, "", &rows)
}

func (r *PostgrestTables) Close(ctx context.Context) error {
	r.client.CloseIdleConnections()
	return nil
}
