package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/jmoiron/sqlx"
)

type SessionStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionStore(db *sqlx.DB) session.Store {
	return &SessionStore{db: db, now: time.Now}
}

type sessionRow struct {
	Payload   []byte    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT payload, expires_at FROM sessions WHERE id = $1 AND expires_at > $2`,
		id, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var sess session.Session
	if err := json.Unmarshal(row.Payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	sess.ID = id
	sess.ExpiresAt = row.ExpiresAt
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, payload, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		sess.ID, payload, sess.ExpiresAt.UTC(), s.now().UTC())
	return err
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
