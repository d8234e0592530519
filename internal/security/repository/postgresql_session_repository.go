// Package repository provides PostgreSQL and MySQL implementations of the
// security state stores: sessions, security events and per-user lockout
// state. Both variants share the same contracts; they differ only in
// placeholder style, UUID column representation and upsert syntax.
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

// PostgreSQLSessionRepository implements session persistence for PostgreSQL.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL session repository instance.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}

// Create stores a new session.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *securityDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO sessions (id, user_id, ip_address, user_agent, last_activity, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
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
func (p *PostgreSQLSessionRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*securityDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, ip_address, user_agent, last_activity, created_at
			  FROM sessions
			  WHERE id = $1`

	var session securityDomain.Session
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
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

	return &session, nil
}

// FindByUserID returns all sessions for a user ordered by last activity
// ascending, oldest first, so callers can evict from the front.
func (p *PostgreSQLSessionRepository) FindByUserID(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	return p.listByUserID(ctx, userID, false)
}

// FindByUserIDForUpdate is FindByUserID with FOR UPDATE row locks. Must run
// inside a transaction; concurrent cap enforcement for the same user
// serializes on the locks.
func (p *PostgreSQLSessionRepository) FindByUserIDForUpdate(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	return p.listByUserID(ctx, userID, true)
}

func (p *PostgreSQLSessionRepository) listByUserID(
	ctx context.Context,
	userID string,
	lock bool,
) ([]*securityDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, ip_address, user_agent, last_activity, created_at
			  FROM sessions
			  WHERE user_id = $1
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
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.IPAddress,
			&session.UserAgent,
			&session.LastActivity,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// UpdateLastActivity touches the session's last activity timestamp.
func (p *PostgreSQLSessionRepository) UpdateLastActivity(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET last_activity = $1 WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, at, id)
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
func (p *PostgreSQLSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteAllByUserID removes every session for a user.
func (p *PostgreSQLSessionRepository) DeleteAllByUserID(ctx context.Context, userID string) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE user_id = $1`

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
func (p *PostgreSQLSessionRepository) DeleteInactiveSince(
	ctx context.Context,
	cutoff time.Time,
) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE last_activity < $1`

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
