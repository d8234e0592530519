package repository

import (
	"context"
	"database/sql"
	"time"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
)

// PostgreSQLFieldRepository implements encrypted field record persistence for
// PostgreSQL.
//
// Records are keyed by the composite (entity_type, entity_id, field_name);
// upsert semantics make both single-field writes and rotation rewrites
// idempotent. key_version is indexed so rotation can page through stale
// records with a plain filter.
type PostgreSQLFieldRepository struct {
	db *sql.DB
}

// NewPostgreSQLFieldRepository creates a new PostgreSQL field repository instance.
func NewPostgreSQLFieldRepository(db *sql.DB) *PostgreSQLFieldRepository {
	return &PostgreSQLFieldRepository{db: db}
}

// Upsert inserts or replaces the encrypted value for a field.
func (p *PostgreSQLFieldRepository) Upsert(
	ctx context.Context,
	record *cryptoDomain.EncryptedFieldRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	now := time.Now().UTC()

	query := `INSERT INTO encrypted_fields (entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $6)
			  ON CONFLICT (entity_type, entity_id, field_name)
			  DO UPDATE SET envelope = EXCLUDED.envelope,
							key_version = EXCLUDED.key_version,
							updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.EntityType,
		record.EntityID,
		record.FieldName,
		record.Envelope,
		record.KeyVersion,
		now,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert encrypted field")
	}

	return nil
}

// Find returns the record for the composite key, or ErrFieldNotFound.
func (p *PostgreSQLFieldRepository) Find(
	ctx context.Context,
	entityType, entityID, fieldName string,
) (*cryptoDomain.EncryptedFieldRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at
			  FROM encrypted_fields
			  WHERE entity_type = $1 AND entity_id = $2 AND field_name = $3`

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
// key version. Rotation pages through this until it returns an empty slice.
func (p *PostgreSQLFieldRepository) FindByKeyVersion(
	ctx context.Context,
	version uint,
	limit int,
) ([]*cryptoDomain.EncryptedFieldRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT entity_type, entity_id, field_name, envelope, key_version, created_at, updated_at
			  FROM encrypted_fields
			  WHERE key_version = $1
			  ORDER BY entity_type, entity_id, field_name
			  LIMIT $2`

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

// Delete removes the record for the composite key. Deleting a missing record
// is a no-op success.
func (p *PostgreSQLFieldRepository) Delete(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM encrypted_fields
			  WHERE entity_type = $1 AND entity_id = $2 AND field_name = $3`

	_, err := querier.ExecContext(ctx, query, entityType, entityID, fieldName)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete encrypted field")
	}

	return nil
}
