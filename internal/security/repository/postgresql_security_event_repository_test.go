package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	"github.com/keyfort/keyfort/internal/testutil"
)

func newTestEvent(eventType securityDomain.EventType, userID string, createdAt time.Time) *securityDomain.SecurityEvent {
	return &securityDomain.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		UserID:    userID,
		IPAddress: "203.0.113.10",
		UserAgent: "test-agent/1.0",
		CreatedAt: createdAt,
	}
}

func TestPostgreSQLSecurityEventRepository_Create(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecurityEventRepository(db)
	ctx := context.Background()

	event := newTestEvent(securityDomain.LoginFailed, "alice", time.Now().UTC())
	event.Metadata = map[string]any{"reason": "invalid password"}

	require.NoError(t, repo.Create(ctx, event))

	events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, securityDomain.LoginFailed, events[0].Type)
	assert.Equal(t, "invalid password", events[0].Metadata["reason"])
}

func TestPostgreSQLSecurityEventRepository_Create_WithNilMetadata(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecurityEventRepository(db)
	ctx := context.Background()

	event := newTestEvent(securityDomain.LoginSuccess, "alice", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, event))

	// Verify metadata is NULL in database
	var metadataNull bool
	err := db.QueryRowContext(
		ctx,
		`SELECT metadata IS NULL FROM security_events WHERE id = $1`,
		event.ID,
	).Scan(&metadataNull)
	require.NoError(t, err)
	assert.True(t, metadataNull, "metadata should be NULL in database")

	events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Metadata)
}

func TestPostgreSQLSecurityEventRepository_FindByFilter(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecurityEventRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := newTestEvent(securityDomain.LoginFailed, "alice", now.Add(-2*time.Hour))
	recent := newTestEvent(securityDomain.LoginFailed, "alice", now)
	success := newTestEvent(securityDomain.LoginSuccess, "alice", now)
	other := newTestEvent(securityDomain.LoginFailed, "bob", now)

	for _, e := range []*securityDomain.SecurityEvent{old, recent, success, other} {
		require.NoError(t, repo.Create(ctx, e))
	}

	t.Run("filter by type and user", func(t *testing.T) {
		events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{
			Type:   securityDomain.LoginFailed,
			UserID: "alice",
		})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("filter by time range", func(t *testing.T) {
		events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{
			UserID: "alice",
			Start:  now.Add(-30 * time.Minute),
		})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{
			Type:  securityDomain.LoginFailed,
			Limit: 2,
		})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.WithinDuration(t, now, events[0].CreatedAt, time.Second)
	})

	t.Run("no filter returns everything", func(t *testing.T) {
		events, err := repo.FindByFilter(ctx, securityDomain.EventFilter{})
		require.NoError(t, err)
		assert.Len(t, events, 4)
	})
}

func TestPostgreSQLSecurityEventRepository_CountByTypeAndUser(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecurityEventRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	// Two recent failures, one stale, one for another user
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "alice", now)))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "alice", now.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "alice", now.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "bob", now)))

	count, err := repo.CountByTypeAndUser(ctx, securityDomain.LoginFailed, "alice", now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostgreSQLSecurityEventRepository_CountByTypeInRange(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecurityEventRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "alice", now)))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginFailed, "bob", now)))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginSuccess, "alice", now)))
	require.NoError(t, repo.Create(ctx, newTestEvent(securityDomain.LoginSuccess, "alice", now.Add(-48*time.Hour))))

	counts, err := repo.CountByTypeInRange(ctx, now.Add(-24*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[securityDomain.LoginFailed])
	assert.Equal(t, 1, counts[securityDomain.LoginSuccess])
}
