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

// MySQLKeyRepository implements encryption key persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLKeyRepository struct {
	db *sql.DB
}

// NewMySQLKeyRepository creates a new MySQL key repository instance.
func NewMySQLKeyRepository(db *sql.DB) *MySQLKeyRepository {
	return &MySQLKeyRepository{db: db}
}

// Create inserts a new inactive encryption key with the next monotonic version.
// MySQL has no RETURNING, so the version is assigned via INSERT ... SELECT on
// the target table; rotation runs this inside a transaction.
func (m *MySQLKeyRepository) Create(
	ctx context.Context,
	wrappedKey string,
	alg cryptoDomain.Algorithm,
	expiresAt time.Time,
) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, m.db)

	key := cryptoDomain.EncryptionKey{
		ID:         uuid.Must(uuid.NewV7()),
		WrappedKey: wrappedKey,
		Algorithm:  alg,
		IsActive:   false,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal key id")
	}

	query := `INSERT INTO encryption_keys (id, version, wrapped_key, algorithm, is_active, created_at, expires_at)
			  SELECT ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?, ?, ?
			  FROM encryption_keys`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		key.WrappedKey,
		key.Algorithm,
		key.IsActive,
		key.CreatedAt,
		key.ExpiresAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create encryption key")
	}

	versionQuery := `SELECT version FROM encryption_keys WHERE id = ?`
	if err := querier.QueryRowContext(ctx, versionQuery, id).Scan(&key.Version); err != nil {
		return nil, apperrors.Wrap(err, "failed to read assigned key version")
	}

	return &key, nil
}

// FindActive returns the single active key, or ErrKeyNotFound if none exists.
func (m *MySQLKeyRepository) FindActive(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE is_active = TRUE
			  ORDER BY version DESC
			  LIMIT 1`

	return m.scanKey(querier.QueryRowContext(ctx, query))
}

// FindByVersion returns the key for the given version, or ErrKeyNotFound.
func (m *MySQLKeyRepository) FindByVersion(
	ctx context.Context,
	version uint,
) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE version = ?`

	return m.scanKey(querier.QueryRowContext(ctx, query, version))
}

// FindLatestRotated returns the key with the newest non-null rotated_at,
// or ErrKeyNotFound if no key has been rotated out yet.
func (m *MySQLKeyRepository) FindLatestRotated(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, version, wrapped_key, algorithm, is_active, rotated_at, created_at, expires_at
			  FROM encryption_keys
			  WHERE rotated_at IS NOT NULL
			  ORDER BY rotated_at DESC
			  LIMIT 1`

	return m.scanKey(querier.QueryRowContext(ctx, query))
}

// FindAllActive returns every key currently flagged active, newest first.
func (m *MySQLKeyRepository) FindAllActive(ctx context.Context) ([]*cryptoDomain.EncryptionKey, error) {
	querier := database.GetTx(ctx, m.db)

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
		key, err := scanMySQLKeyRow(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// Update applies the mutable fields of a KeyUpdate to the key with the given ID.
func (m *MySQLKeyRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	update cryptoDomain.KeyUpdate,
) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key id")
	}

	query := `UPDATE encryption_keys
			  SET is_active = COALESCE(?, is_active),
				  rotated_at = COALESCE(?, rotated_at)
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, update.IsActive, update.RotatedAt, binID)
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

func (m *MySQLKeyRepository) scanKey(row *sql.Row) (*cryptoDomain.EncryptionKey, error) {
	var key cryptoDomain.EncryptionKey
	var binID []byte

	err := row.Scan(
		&binID,
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

	if key.ID, err = uuid.FromBytes(binID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal key id")
	}

	return &key, nil
}

func scanMySQLKeyRow(rows *sql.Rows) (*cryptoDomain.EncryptionKey, error) {
	var key cryptoDomain.EncryptionKey
	var binID []byte

	err := rows.Scan(
		&binID,
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

	if key.ID, err = uuid.FromBytes(binID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal key id")
	}

	return &key, nil
}
