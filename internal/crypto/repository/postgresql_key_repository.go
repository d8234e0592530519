// Package repository implements data persistence for encryption keys and
// encrypted field records.
//
// Each store has a PostgreSQL and a MySQL implementation working over
// database/sql. All repositories support transaction-aware operations via
// database.GetTx(), enabling atomic multi-step operations such as the
// activate/deactivate swap during key rotation.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
)

// PostgreSQLKeyRepository implements encryption key persistence for PostgreSQL.
//
// Versions are assigned inside the insert statement (MAX(version)+1) so they
// stay monotonic even if two rotation attempts race: the version column is
// immutable once written and carries the ordering the envelope format depends on.
//
// Database schema:
//   - id: UUID PRIMARY KEY
//   - version: INTEGER UNIQUE NOT NULL
//   - wrapped_key: TEXT NOT NULL (data key wrapped under the master key)
//   - algorithm: TEXT NOT NULL
//   - is_active: BOOLEAN NOT NULL
//   - rotated_at: TIMESTAMP WITH TIME ZONE NULL
//   - created_at, expires_at: TIMESTAMP WITH TIME ZONE NOT NULL
type PostgreSQLKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRepository creates a new PostgreSQL key repository instance.
func NewPostgreSQLKeyRepository(db *sql.DB) *PostgreSQLKeyRepository {
	return &PostgreSQLKeyRepository{db: db}
}

// Create inserts a new inactive encryption key with the next monotonic version.
// The assigned version is read back through RETURNING and set on the returned key.
func (p *PostgreSQLKeyRepository) Create(
	ctx context.Context,
	wrappedKey string,
	alg cryptoDomain.Algorithm,
	expiresAt time.Time,
) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, p.db)

	key := cryptoDomain.EncryptionKey{
		ID:         uuid.Must(uuid.NewV7()),
		WrappedKey: wrappedKey,
		Algorithm:  alg,
		IsActive:   false,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}

	query := `INSERT INTO encryption_keys (id, version, wrapped_key, algorithm, is_active, created_at, expires_at)
			  VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM encryption_keys), $2, $3, $4, $5, $6)
			  RETURNING version`

	err := querier.QueryRowContext(
		ctx,
		query,
		key.ID,
		key.WrappedKey,
		key.Algorithm,
		key.IsActive,
		key.CreatedAt,
		key.ExpiresAt,
	).Scan(&key.Version)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create encryption key")
	}

	return &key, nil
}

// FindActive returns the single active key, or ErrKeyNotFound if none exists.
func (p *PostgreSQLKeyRepository) FindActive(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE is_active = TRUE
			  ORDER BY version DESC
			  LIMIT 1`

	return p.scanKey(querier.QueryRowContext(ctx, query))
}

// FindByVersion returns the key for the given version, or ErrKeyNotFound.
func (p *PostgreSQLKeyRepository) FindByVersion(
	ctx context.Context,
	version uint,
) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE version = $1`

	return p.scanKey(querier.QueryRowContext(ctx, query, version))
}

// FindLatestRotated returns the key with the newest non-null rotated_at,
// or ErrKeyNotFound if no key has been rotated out yet. Keys minted but
// never activated carry a null rotated_at and are skipped.
func (p *PostgreSQLKeyRepository) FindLatestRotated(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE rotated_at IS NOT NULL
			  ORDER BY rotated_at DESC
			  LIMIT 1`

	return p.scanKey(querier.QueryRowContext(ctx, query))
}

// FindAllActive returns every key currently flagged active, newest first.
// Used by rotation status to count keys pending rotation.
func (p *PostgreSQLKeyRepository) FindAllActive(ctx context.Context) ([]*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE is_active = TRUE
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*cryptoDomain.EncryptionKey
	for rows.Next() {
		var key cryptoDomain.EncryptionKey
		err := rows.Scan(
			&key.ID,
			&key.Version,
			&key.WrappedKey,
			&key.Algorithm,
			&key.IsActive,
			&key.RotatedAt,
			&key.CreatedAt,
			&key.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// Update applies the mutable fields of a KeyUpdate to the key with the given ID.
// Version and wrapped key are immutable and never touched.
func (p *PostgreSQLKeyRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	update cryptoDomain.KeyUpdate,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE encryption_keys
			  SET is_active = COALESCE($1, is_active),
				  rotated_at = COALESCE($2, rotated_at)
			  WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, update.IsActive, update.RotatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update encryption key")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update encryption key")
	}
	if affected == 0 {
		return cryptoDomain.ErrKeyNotFound
	}

	return nil
}

// scanKey scans a single key row, mapping sql.ErrNoRows to ErrKeyNotFound.
func (p *PostgreSQLKeyRepository) scanKey(row *sql.Row) (*cryptoDomain.EncryptionKey, error) {
	var key cryptoDomain.EncryptionKey

	err := row.Scan(
		&key.ID,
		&key.Version,
		&key.WrappedKey,
		&key.Algorithm,
		&key.IsActive,
		&key.RotatedAt,
		&key.CreatedAt,
		&key.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKeyNotFound
		}
		return nil, err
	}

	return &key, nil
}
