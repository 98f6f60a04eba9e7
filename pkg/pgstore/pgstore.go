package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

//go:embed migrations
var migrations embed.FS

type Store struct {
	log *logrus.Entry
	db  *sqlx.DB
}

func New(ctx context.Context, log *logrus.Logger, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		log: log.WithField("component", "pgstore"),
		db:  db,
	}, nil
}

func (s *Store) Migrate(direction migrate.MigrationDirection) error {
	assetDir := func() func(string) ([]string, error) {
		return func(path string) ([]string, error) {
			dirEntry, er := migrations.ReadDir(path)
			if er != nil {
				return nil, er
			}
			entries := make([]string, 0)
			for _, e := range dirEntry {
				entries = append(entries, e.Name())
			}

			return entries, nil
		}
	}()
	asset := migrate.AssetMigrationSource{
		Asset:    migrations.ReadFile,
		AssetDir: assetDir,
		Dir:      "migrations",
	}
	_, err := migrate.Exec(s.db.DB, "postgres", asset, direction)
	return err
}

// UpsertMerge creates or updates the record keyed by (owner_key,
// session_key). Absent fields arrive as NULL and COALESCE keeps the
// previously stored value, so a partial update never clears anything.
// Storage errors are not retried: any failure is fatal for the turn.
func (s *Store) UpsertMerge(ctx context.Context, rec *models.MeetingRequest) (models.MeetingRequest, error) {
	if rec == nil {
		return models.MeetingRequest{}, models.ErrNullRecord
	}
	var merged models.MeetingRequest
	query := `
INSERT INTO meeting_requests (owner_key, session_key, attendees, duration_hours, selected_slot, title, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_key, session_key) DO UPDATE SET
	attendees      = COALESCE(EXCLUDED.attendees, meeting_requests.attendees),
	duration_hours = COALESCE(EXCLUDED.duration_hours, meeting_requests.duration_hours),
	selected_slot  = COALESCE(EXCLUDED.selected_slot, meeting_requests.selected_slot),
	title          = COALESCE(EXCLUDED.title, meeting_requests.title),
	description    = COALESCE(EXCLUDED.description, meeting_requests.description),
	updated_at     = now()
RETURNING owner_key, session_key, attendees, duration_hours, selected_slot, title, description, created_at, updated_at;`
	err := s.db.GetContext(ctx, &merged, query,
		rec.OwnerKey, rec.SessionKey, rec.Attendees, rec.DurationHours, rec.SelectedSlot, rec.Title, rec.Description)
	if err != nil {
		return models.MeetingRequest{}, fmt.Errorf("err upserting meeting request (%s, %s): %w", rec.OwnerKey, rec.SessionKey, err)
	}
	return merged, nil
}

// Get returns the stored record or models.ErrRequestNotFound.
func (s *Store) Get(ctx context.Context, ownerKey, sessionKey string) (models.MeetingRequest, error) {
	var rec models.MeetingRequest
	query := `
SELECT owner_key, session_key, attendees, duration_hours, selected_slot, title, description, created_at, updated_at
FROM meeting_requests
WHERE owner_key = $1 AND session_key = $2;`
	err := s.db.GetContext(ctx, &rec, query, ownerKey, sessionKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.MeetingRequest{}, models.ErrRequestNotFound
	case err != nil:
		return models.MeetingRequest{}, fmt.Errorf("err getting meeting request (%s, %s): %w", ownerKey, sessionKey, err)
	}
	return rec, nil
}

func (s *Store) ResetTables(ctx context.Context, tables []string) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE TABLE `+strings.Join(tables, `, `))
	return err
}
