package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notespace/model"
	"notespace/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresTables reads and writes the service's tables over a direct
// database connection.
type PostgresTables struct {
	pool *pgxpool.Pool
}

func NewPostgresTables(ctx context.Context, dsn string) (*PostgresTables, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	return &PostgresTables{pool: pool}, nil
}

// Migrate brings the schema up to the embedded migrations.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("postgres schema ready")
	return nil
}

// migrateURL swaps the scheme for the one the pgx/v5 migrate driver registers.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func pgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", model.ErrOffline, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code):
			return fmt.Errorf("%w: %w", model.ErrOffline, err)
		case pgErr.Code == pgerrcode.UniqueViolation:
			return &model.RemoteError{Status: http.StatusConflict, Code: pgErr.Code, Message: pgErr.Message}
		case pgErr.Code == pgerrcode.ForeignKeyViolation,
			pgerrcode.IsDataException(pgErr.Code),
			pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return &model.RemoteError{Status: http.StatusBadRequest, Code: pgErr.Code, Message: pgErr.Message}
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return &model.RemoteError{Status: http.StatusForbidden, Code: pgErr.Code, Message: pgErr.Message}
		}
		return &model.RemoteError{Status: http.StatusInternalServerError, Code: pgErr.Code, Message: pgErr.Message}
	}
	return err
}

func (r *PostgresTables) queryNotes(ctx context.Context, q sq.Sqlizer) ([]model.Note, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgError(err)
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Note])
	if err != nil {
		return nil, pgError(err)
	}
	return notes, nil
}

func (r *PostgresTables) queryFolders(ctx context.Context, q sq.Sqlizer) ([]model.Folder, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgError(err)
	}
	folders, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Folder])
	if err != nil {
		return nil, pgError(err)
	}
	return folders, nil
}

func (r *PostgresTables) exec(ctx context.Context, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, pgError(err)
	}
	return tag.RowsAffected(), nil
}

func listNotesQuery(userID string) sq.SelectBuilder {
	return psql.Select("*").
		From(notesTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC")
}

func insertNoteQuery(note model.Note) sq.InsertBuilder {
	return psql.Insert(notesTable).
		Columns("id", "user_id", "title", "content", "folder_id", "is_favorite", "is_archived", "is_deleted", "created_at", "updated_at").
		Values(note.ID, note.UserID, note.Title, note.Content, note.FolderID, note.IsFavorite, note.IsArchived, note.IsDeleted, note.CreatedAt, note.UpdatedAt).
		Suffix("RETURNING *")
}

func updateNoteQuery(userID, noteID string, patch model.NotePatch) sq.UpdateBuilder {
	return psql.Update(notesTable).
		SetMap(patch.Fields()).
		Where(sq.Eq{"id": noteID, "user_id": userID}).
		Suffix("RETURNING *")
}

func clearFolderQuery(userID, folderID string, now time.Time) sq.UpdateBuilder {
	return psql.Update(notesTable).
		Set("folder_id", nil).
		Set("updated_at", now).
		Where(sq.Eq{"user_id": userID, "folder_id": folderID})
}

func (r *PostgresTables) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	timer := utils.TrackRemoteCall("list", notesTable)
	defer timer.ObserveDuration()

	return r.queryNotes(ctx, listNotesQuery(userID))
}

func (r *PostgresTables) InsertNote(ctx context.Context, note model.Note) (model.Note, error) {
	timer := utils.TrackRemoteCall("insert", notesTable)
	defer timer.ObserveDuration()

	note.ID = uuid.NewString()
	notes, err := r.queryNotes(ctx, insertNoteQuery(note))
	if err != nil {
		return model.Note{}, err
	}
	if len(notes) == 0 {
		return model.Note{}, &model.RemoteError{Status: http.StatusInternalServerError, Message: "insert returned no row"}
	}
	return notes[0], nil
}

func (r *PostgresTables) UpdateNote(ctx context.Context, userID, noteID string, patch model.NotePatch) (model.Note, error) {
	timer := utils.TrackRemoteCall("update", notesTable)
	defer timer.ObserveDuration()

	if patch.Empty() && patch.UpdatedAt == nil {
		return model.Note{}, model.Invalid("empty patch")
	}
	notes, err := r.queryNotes(ctx, updateNoteQuery(userID, noteID, patch))
	if err != nil {
		return model.Note{}, err
	}
	if len(notes) == 0 {
		return model.Note{}, fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	return notes[0], nil
}

func (r *PostgresTables) DeleteNote(ctx context.Context, userID, noteID string) error {
	timer := utils.TrackRemoteCall("delete", notesTable)
	defer timer.ObserveDuration()

	n, err := r.exec(ctx, psql.Delete(notesTable).Where(sq.Eq{"id": noteID, "user_id": userID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("note %s: %w", noteID, model.ErrNotFound)
	}
	return nil
}

func (r *PostgresTables) ClearFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("clear_folder", notesTable)
	defer timer.ObserveDuration()

	_, err := r.exec(ctx, clearFolderQuery(userID, folderID, time.Now().UTC()))
	return err
}

func (r *PostgresTables) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	timer := utils.TrackRemoteCall("list", foldersTable)
	defer timer.ObserveDuration()

	return r.queryFolders(ctx, psql.Select("*").
		From(foldersTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at ASC"))
}

func (r *PostgresTables) InsertFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	timer := utils.TrackRemoteCall("insert", foldersTable)
	defer timer.ObserveDuration()

	folder.ID = uuid.NewString()
	folders, err := r.queryFolders(ctx, psql.Insert(foldersTable).
		Columns("id", "user_id", "name", "is_root", "created_at", "updated_at").
		Values(folder.ID, folder.UserID, folder.Name, folder.IsRoot, folder.CreatedAt, folder.UpdatedAt).
		Suffix("RETURNING *"))
	if err != nil {
		return model.Folder{}, err
	}
	if len(folders) == 0 {
		return model.Folder{}, &model.RemoteError{Status: http.StatusInternalServerError, Message: "insert returned no row"}
	}
	return folders[0], nil
}

func (r *PostgresTables) RenameFolder(ctx context.Context, userID, folderID, name string) (model.Folder, error) {
	timer := utils.TrackRemoteCall("update", foldersTable)
	defer timer.ObserveDuration()

	folders, err := r.queryFolders(ctx, psql.Update(foldersTable).
		Set("name", name).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": folderID, "user_id": userID}).
		Suffix("RETURNING *"))
	if err != nil {
		return model.Folder{}, err
	}
	if len(folders) == 0 {
		return model.Folder{}, fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	return folders[0], nil
}

func (r *PostgresTables) DeleteFolder(ctx context.Context, userID, folderID string) error {
	timer := utils.TrackRemoteCall("delete", foldersTable)
	defer timer.ObserveDuration()

	n, err := r.exec(ctx, psql.Delete(foldersTable).Where(sq.Eq{"id": folderID, "user_id": userID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("folder %s: %w", folderID, model.ErrNotFound)
	}
	return nil
}

func (r *PostgresTables) UsernameTaken(ctx context.Context, username string) (bool, error) {
	timer := utils.TrackRemoteCall("select", profilesTable)
	defer timer.ObserveDuration()

	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From(profilesTable).
		Where(sq.Eq{"username": username}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var taken bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&taken); err != nil {
		return false, pgError(err)
	}
	return taken, nil
}

func (r *PostgresTables) Ping(ctx context.Context) error {
	timer := utils.TrackRemoteCall("ping", notesTable)
	defer timer.ObserveDuration()

	return pgError(r.pool.Ping(ctx))
}

func (r *PostgresTables) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}
