package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// MySQLUserSecurityRepository implements per-user lockout state persistence
// for MySQL.
type MySQLUserSecurityRepository struct {
	db *sql.DB
}

// NewMySQLUserSecurityRepository creates a new MySQL user security repository instance.
func NewMySQLUserSecurityRepository(db *sql.DB) *MySQLUserSecurityRepository {
	return &MySQLUserSecurityRepository{db: db}
}

// FindByUserID returns the user's security state, or ErrUserNotFound.
func (m *MySQLUserSecurityRepository) FindByUserID(
	ctx context.Context,
	userID string,
) (*securityDomain.UserSecurity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT user_id, password_hash, failed_login_attempts, last_failed_attempt, locked_until
			  FROM user_security
			  WHERE user_id = ?`

	var user securityDomain.UserSecurity
	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.PasswordHash,
		&user.FailedLoginAttempts,
		&user.LastFailedAttempt,
		&user.LockedUntil,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, securityDomain.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Update applies the non-nil fields of the update. ClearLock and
// ClearLastFailed null their columns explicitly; an update with nothing to
// change is a no-op.
//
// Note: MySQL reports RowsAffected as zero when an UPDATE matches a row but
// changes no column values, so missing users are detected with an existence
// check instead.
func (m *MySQLUserSecurityRepository) Update(
	ctx context.Context,
	userID string,
	update securityDomain.UserSecurityUpdate,
) error {
	querier := database.GetTx(ctx, m.db)

	sets := make([]string, 0)
	args := make([]any, 0)

	if update.FailedLoginAttempts != nil {
		sets = append(sets, "failed_login_attempts = ?")
		args = append(args, *update.FailedLoginAttempts)
	}
	switch {
	case update.LastFailedAttempt != nil:
		sets = append(sets, "last_failed_attempt = ?")
		args = append(args, *update.LastFailedAttempt)
	case update.ClearLastFailed:
		sets = append(sets, "last_failed_attempt = NULL")
	}
	switch {
	case update.LockedUntil != nil:
		sets = append(sets, "locked_until = ?")
		args = append(args, *update.LockedUntil)
	case update.ClearLock:
		sets = append(sets, "locked_until = NULL")
	}

	if len(sets) == 0 {
		return nil
	}

	var exists bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM user_security WHERE user_id = ?)`
	if err := querier.QueryRowContext(ctx, existsQuery, userID).Scan(&exists); err != nil {
		return apperrors.Wrap(err, "failed to update user security state")
	}
	if !exists {
		return securityDomain.ErrUserNotFound
	}

	query := "UPDATE user_security SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"
	args = append(args, userID)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to update user security state")
	}

	return nil
}

// FindLocked returns users whose lock has not elapsed at the given instant.
func (m *MySQLUserSecurityRepository) FindLocked(
	ctx context.Context,
	now time.Time,
) ([]*securityDomain.UserSecurity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT user_id, password_hash, failed_login_attempts, last_failed_attempt, locked_until
			  FROM user_security
			  WHERE locked_until IS NOT NULL AND locked_until > ?
			  ORDER BY user_id ASC`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list locked users")
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]*securityDomain.UserSecurity, 0)
	for rows.Next() {
		var user securityDomain.UserSecurity
		err := rows.Scan(
			&user.UserID,
			&user.PasswordHash,
			&user.FailedLoginAttempts,
			&user.LastFailedAttempt,
			&user.LockedUntil,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user security state")
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate locked users")
	}

	return users, nil
}

// CountLocked counts users whose lock has not elapsed at the given instant.
func (m *MySQLUserSecurityRepository) CountLocked(ctx context.Context, now time.Time) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*)
			  FROM user_security
			  WHERE locked_until IS NOT NULL AND locked_until > ?`

	var count int
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count locked users")
	}

	return count, nil
}
