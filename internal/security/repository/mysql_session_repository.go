package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// MySQLSessionRepository implements session persistence for MySQL.
// Uses BINARY(16) for session IDs with transaction support via database.GetTx().
type MySQLSessionRepository struct {
	db *sql.DB
}

// NewMySQLSessionRepository creates a new MySQL session repository instance.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}

// Create stores a new session.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *securityDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `INSERT INTO sessions (id, user_id, ip_address, user_agent, last_activity, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		session.UserID,
		session.IPAddress,
		session.UserAgent,
		session.LastActivity,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}

	return nil
}

// FindByID returns the session, or ErrSessionNotFound.
func (m *MySQLSessionRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*securityDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `SELECT id, user_id, ip_address, user_agent, last_activity, created_at
			  FROM sessions
			  WHERE id = ?`

	var session securityDomain.Session
	var rawID []byte
	err = querier.QueryRowContext(ctx, query, binID).Scan(
		&rawID,
		&session.UserID,
		&session.IPAddress,
		&session.UserAgent,
		&session.LastActivity,
		&session.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, securityDomain.ErrSessionNotFound
		}
		return nil, err
	}

	if session.ID, err = uuid.FromBytes(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse session id")
	}

	return &session, nil
}

// FindByUserID returns all sessions for a user ordered by last activity
// ascending, oldest first, so callers can evict from the front.
func (m *MySQLSessionRepository) FindByUserID(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	return m.listByUserID(ctx, userID, false)
}

// FindByUserIDForUpdate is FindByUserID with FOR UPDATE row locks. Must run
// inside a transaction; concurrent cap enforcement for the same user
// serializes on the locks.
func (m *MySQLSessionRepository) FindByUserIDForUpdate(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	return m.listByUserID(ctx, userID, true)
}

func (m *MySQLSessionRepository) listByUserID(
	ctx context.Context,
	userID string,
	lock bool,
) ([]*securityDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, ip_address, user_agent, last_activity, created_at
			  FROM sessions
			  WHERE user_id = ?
			  ORDER BY last_activity ASC`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sessions")
	}
	defer func() {
		_ = rows.Close()
	}()

	sessions := make([]*securityDomain.Session, 0)
	for rows.Next() {
		var session securityDomain.Session
		var rawID []byte
		err := rows.Scan(
			&rawID,
			&session.UserID,
			&session.IPAddress,
			&session.UserAgent,
			&session.LastActivity,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}
		if session.ID, err = uuid.FromBytes(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse session id")
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// UpdateLastActivity touches the session's last activity timestamp.
func (m *MySQLSessionRepository) UpdateLastActivity(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions SET last_activity = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, at, binID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update session activity")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update session activity")
	}
	if affected == 0 {
		return securityDomain.ErrSessionNotFound
	}

	return nil
}

// Delete removes a session. Deleting a missing session is a no-op success.
func (m *MySQLSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `DELETE FROM sessions WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, binID); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteAllByUserID removes every session for a user.
func (m *MySQLSessionRepository) DeleteAllByUserID(ctx context.Context, userID string) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE user_id = ?`

	result, err := querier.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete sessions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete sessions")
	}

	return int(affected), nil
}

// DeleteInactiveSince bulk-removes sessions idle since before the cutoff.
func (m *MySQLSessionRepository) DeleteInactiveSince(
	ctx context.Context,
	cutoff time.Time,
) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE last_activity < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge sessions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge sessions")
	}

	return int(affected), nil
}
