package repository

import (
	"context"
	"database/sql"
	"time"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
)

// MySQLFieldRepository implements encrypted field record persistence for MySQL.
type MySQLFieldRepository struct {
	db *sql.DB
}

// NewMySQLFieldRepository creates a new MySQL field repository instance.
func NewMySQLFieldRepository(db *sql.DB) *MySQLFieldRepository {
	return &MySQLFieldRepository{db: db}
}

// Upsert inserts or replaces the encrypted value for a field.
func (m *MySQLFieldRepository) Upsert(
	ctx context.Context,
	record *cryptoDomain.EncryptedFieldRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	now := time.Now().UTC()

	query := `INSERT INTO encrypted_fields (entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE envelope = VALUES(envelope),
									  key_version = VALUES(key_version),
									  updated_at = VALUES(updated_at)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.EntityType,
		record.EntityID,
		record.FieldName,
		record.Envelope,
		record.KeyVersion,
		now,
		now,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert encrypted field")
	}

	return nil
}

// Find returns the record for the composite key, or ErrFieldNotFound.
func (m *MySQLFieldRepository) Find(
	ctx context.Context,
	entityType, entityID, fieldName string,
) (*cryptoDomain.EncryptedFieldRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at
			  FROM encrypted_fields
			  WHERE entity_type = ? AND entity_id = ? AND field_name = ?`

	var record cryptoDomain.EncryptedFieldRecord
	err := querier.QueryRowContext(ctx, query, entityType, entityID, fieldName).Scan(
		&record.EntityType,
		&record.EntityID,
		&record.FieldName,
		&record.Envelope,
		&record.KeyVersion,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrFieldNotFound
		}
		return nil, err
	}

	return &record, nil
}

// FindByKeyVersion returns up to limit records still encrypted under the given
// key version.
func (m *MySQLFieldRepository) FindByKeyVersion(
	ctx context.Context,
	version uint,
	limit int,
) ([]*cryptoDomain.EncryptedFieldRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at
			  FROM encrypted_fields
			  WHERE key_version = ?
			  ORDER BY entity_type, entity_id, field_name
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, version, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*cryptoDomain.EncryptedFieldRecord
	for rows.Next() {
		var record cryptoDomain.EncryptedFieldRecord
		err := rows.Scan(
			&record.EntityType,
			&record.EntityID,
			&record.FieldName,
			&record.Envelope,
			&record.KeyVersion,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes the record for the composite key.
func (m *MySQLFieldRepository) Delete(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM encrypted_fields
			  WHERE entity_type = ? AND entity_id = ? AND field_name = ?`

	_, err := querier.ExecContext(ctx, query, entityType, entityID, fieldName)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete encrypted field")
	}

	return nil
}
