package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// StateRepo stores container snapshots. It satisfies store.Persister.
type StateRepo struct{ db *sqlx.DB }

func NewStateRepo(db *sqlx.DB) *StateRepo { return &StateRepo{db: db} }

func (r *StateRepo) Load(ctx context.Context, sessionID, namespace string) ([]byte, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM state WHERE session_id=? AND namespace=?`, sessionID, namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (r *StateRepo) Save(ctx context.Context, sessionID, namespace string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO state(session_id, namespace, payload, updated_at)
		VALUES(?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id, namespace) DO UPDATE
		SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
	`, sessionID, namespace, string(data))
	return err
}

// Move re-keys a session's snapshot, used when an anonymous cart follows a
// login. An existing snapshot under to is kept and from is dropped.
func (r *StateRepo) Move(ctx context.Context, from, to, namespace string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO state(session_id, namespace, payload, updated_at)
		SELECT ?, namespace, payload, CURRENT_TIMESTAMP FROM state WHERE session_id=? AND namespace=?
		ON CONFLICT(session_id, namespace) DO NOTHING
	`, to, from, namespace); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE session_id=? AND namespace=?`, from, namespace); err != nil {
		return err
	}
	return tx.Commit()
}
