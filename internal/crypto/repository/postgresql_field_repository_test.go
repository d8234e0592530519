package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	"github.com/keyfort/keyfort/internal/testutil"
)

func newTestFieldRecord(entityID, fieldName string, keyVersion uint) *cryptoDomain.EncryptedFieldRecord {
	return &cryptoDomain.EncryptedFieldRecord{
		EntityType: "user",
		EntityID:   entityID,
		FieldName:  fieldName,
		Envelope:   "1:aXY=:dGFn:Y2lwaGVydGV4dA==",
		KeyVersion: keyVersion,
	}
}

func TestNewPostgreSQLFieldRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLFieldRepository{}, repo)
}

func TestPostgreSQLFieldRepository_UpsertAndFind(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)
	ctx := context.Background()

	record := newTestFieldRecord("user-1", "phone_number", 1)
	require.NoError(t, repo.Upsert(ctx, record))

	found, err := repo.Find(ctx, "user", "user-1", "phone_number")
	require.NoError(t, err)
	assert.Equal(t, record.EntityType, found.EntityType)
	assert.Equal(t, record.EntityID, found.EntityID)
	assert.Equal(t, record.FieldName, found.FieldName)
	assert.Equal(t, record.Envelope, found.Envelope)
	assert.Equal(t, uint(1), found.KeyVersion)
	assert.False(t, found.CreatedAt.IsZero())
	assert.False(t, found.UpdatedAt.IsZero())
}

func TestPostgreSQLFieldRepository_Upsert_ReplacesExisting(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)
	ctx := context.Background()

	record := newTestFieldRecord("user-1", "phone_number", 1)
	require.NoError(t, repo.Upsert(ctx, record))

	rewritten := newTestFieldRecord("user-1", "phone_number", 2)
	rewritten.Envelope = "2:aXYy:dGFnMg==:Y2lwaGVydGV4dDI="
	require.NoError(t, repo.Upsert(ctx, rewritten))

	found, err := repo.Find(ctx, "user", "user-1", "phone_number")
	require.NoError(t, err)
	assert.Equal(t, rewritten.Envelope, found.Envelope)
	assert.Equal(t, uint(2), found.KeyVersion)
}

func TestPostgreSQLFieldRepository_Find_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)

	_, err := repo.Find(context.Background(), "user", "missing", "phone_number")
	assert.True(t, apperrors.Is(err, cryptoDomain.ErrFieldNotFound))
}

func TestPostgreSQLFieldRepository_FindByKeyVersion(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)
	ctx := context.Background()

	for _, record := range []*cryptoDomain.EncryptedFieldRecord{
		newTestFieldRecord("user-1", "phone_number", 1),
		newTestFieldRecord("user-2", "phone_number", 1),
		newTestFieldRecord("user-3", "phone_number", 1),
		newTestFieldRecord("user-4", "phone_number", 2),
	} {
		require.NoError(t, repo.Upsert(ctx, record))
	}

	t.Run("filters by version", func(t *testing.T) {
		records, err := repo.FindByKeyVersion(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, records, 3)
		for _, record := range records {
			assert.Equal(t, uint(1), record.KeyVersion)
		}
	})

	t.Run("respects limit for paging", func(t *testing.T) {
		page, err := repo.FindByKeyVersion(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("empty result for exhausted version", func(t *testing.T) {
		records, err := repo.FindByKeyVersion(ctx, 99, 10)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestPostgreSQLFieldRepository_Delete(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLFieldRepository(db)
	ctx := context.Background()

	record := newTestFieldRecord("user-1", "phone_number", 1)
	require.NoError(t, repo.Upsert(ctx, record))

	require.NoError(t, repo.Delete(ctx, "user", "user-1", "phone_number"))

	_, err := repo.Find(ctx, "user", "user-1", "phone_number")
	assert.True(t, apperrors.Is(err, cryptoDomain.ErrFieldNotFound))

	t.Run("deleting missing record succeeds", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, "user", "user-1", "phone_number"))
	})
}
