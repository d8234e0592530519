package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// PostgreSQLUserSecurityRepository implements per-user lockout state
// persistence for PostgreSQL.
type PostgreSQLUserSecurityRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserSecurityRepository creates a new PostgreSQL user security repository instance.
func NewPostgreSQLUserSecurityRepository(db *sql.DB) *PostgreSQLUserSecurityRepository {
	return &PostgreSQLUserSecurityRepository{db: db}
}

// FindByUserID returns the user's security state, or ErrUserNotFound.
func (p *PostgreSQLUserSecurityRepository) FindByUserID(
	ctx context.Context,
	userID string,
) (*securityDomain.UserSecurity, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT user_id, password_hash, failed_login_attempts, last_failed_attempt, locked_until
			  FROM user_security
			  WHERE user_id = $1`

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
func (p *PostgreSQLUserSecurityRepository) Update(
	ctx context.Context,
	userID string,
	update securityDomain.UserSecurityUpdate,
) error {
	querier := database.GetTx(ctx, p.db)

	sets := make([]string, 0)
	args := make([]any, 0)
	placeholder := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if update.FailedLoginAttempts != nil {
		sets = append(sets, "failed_login_attempts = "+placeholder(*update.FailedLoginAttempts))
	}
	switch {
	case update.LastFailedAttempt != nil:
		sets = append(sets, "last_failed_attempt = "+placeholder(*update.LastFailedAttempt))
	case update.ClearLastFailed:
		sets = append(sets, "last_failed_attempt = NULL")
	}
	switch {
	case update.LockedUntil != nil:
		sets = append(sets, "locked_until = "+placeholder(*update.LockedUntil))
	case update.ClearLock:
		sets = append(sets, "locked_until = NULL")
	}

	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE user_security SET " + strings.Join(sets, ", ") +
		" WHERE user_id = " + placeholder(userID)

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user security state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update user security state")
	}
	if affected == 0 {
		return securityDomain.ErrUserNotFound
	}

	return nil
}

// FindLocked returns users whose lock has not elapsed at the given instant.
func (p *PostgreSQLUserSecurityRepository) FindLocked(
	ctx context.Context,
	now time.Time,
) ([]*securityDomain.UserSecurity, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT user_id, password_hash, failed_login_attempts, last_failed_attempt, locked_until
			  FROM user_security
			  WHERE locked_until IS NOT NULL AND locked_until > $1
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
func (p *PostgreSQLUserSecurityRepository) CountLocked(ctx context.Context, now time.Time) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*)
			  FROM user_security
			  WHERE locked_until IS NOT NULL AND locked_until > $1`

	var count int
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count locked users")
	}

	return count, nil
}
