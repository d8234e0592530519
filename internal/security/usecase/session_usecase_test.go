package usecase

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	databaseMocks "github.com/keyfort/keyfort/internal/database/mocks"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	usecaseMocks "github.com/keyfort/keyfort/internal/security/usecase/mocks"
)

const (
	testMaxSessions      = 5
	testInactivityWindow = 30 * time.Minute
)

func newTestSessionUseCase(
	sessionRepo *usecaseMocks.MockSessionRepository,
	monitor *usecaseMocks.MockMonitorUseCase,
) SessionUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	txManager := &databaseMocks.FakeTxManager{}
	return NewSessionUseCase(sessionRepo, txManager, monitor, logger, testMaxSessions, testInactivityWindow)
}

// serializedTxManager mirrors the row-lock behavior of a real transaction:
// concurrent WithTx calls run one at a time, so a transaction observes every
// write committed by the previous one.
type serializedTxManager struct {
	mu sync.Mutex
}

func (f *serializedTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

// memorySessionStore is a map-backed SessionRepository for concurrency tests.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*securityDomain.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID]*securityDomain.Session)}
}

func (m *memorySessionStore) Create(ctx context.Context, session *securityDomain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessionStore) FindByID(ctx context.Context, id uuid.UUID) (*securityDomain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, securityDomain.ErrSessionNotFound
	}
	return session, nil
}

func (m *memorySessionStore) FindByUserID(ctx context.Context, userID string) ([]*securityDomain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := make([]*securityDomain.Session, 0)
	for _, session := range m.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.Before(sessions[j].LastActivity)
	})
	return sessions, nil
}

func (m *memorySessionStore) FindByUserIDForUpdate(ctx context.Context, userID string) ([]*securityDomain.Session, error) {
	return m.FindByUserID(ctx, userID)
}

func (m *memorySessionStore) UpdateLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return securityDomain.ErrSessionNotFound
	}
	session.LastActivity = at
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memorySessionStore) DeleteAllByUserID(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *memorySessionStore) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, session := range m.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *memorySessionStore) countByUserID(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, session := range m.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count
}

func testSession(userID string, lastActivity time.Time) *securityDomain.Session {
	return &securityDomain.Session{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       userID,
		IPAddress:    "203.0.113.10",
		UserAgent:    "test-agent",
		LastActivity: lastActivity,
		CreatedAt:    lastActivity,
	}
}

func TestSessionUseCase_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UnderTheCap", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockSessionRepo.On("FindByUserIDForUpdate", ctx, "user-1").
			Return([]*securityDomain.Session{}, nil)
		mockSessionRepo.On("Create", ctx, mock.MatchedBy(func(s *securityDomain.Session) bool {
			return s.UserID == "user-1" && s.IPAddress == "203.0.113.10" && s.ID != uuid.Nil
		})).Return(nil)
		mockMonitor.On("Record", ctx, securityDomain.SessionCreated, "user-1", "203.0.113.10", "test-agent", mock.Anything).
			Return(nil).Once()

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		session, err := uc.CreateSession(ctx, "user-1", "203.0.113.10", "test-agent")

		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		mockSessionRepo.AssertExpectations(t)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Success_AtTheCapEvictsOldestSession", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		now := time.Now().UTC()
		existing := make([]*securityDomain.Session, 0, testMaxSessions)
		for i := 0; i < testMaxSessions; i++ {
			existing = append(existing, testSession("user-1", now.Add(time.Duration(i)*time.Minute)))
		}
		oldest := existing[0]

		mockSessionRepo.On("FindByUserIDForUpdate", ctx, "user-1").Return(existing, nil)
		mockSessionRepo.On("Delete", ctx, oldest.ID).Return(nil).Once()
		mockSessionRepo.On("Create", ctx, mock.Anything).Return(nil)
		mockMonitor.On("Record", ctx, securityDomain.SessionCreated, "user-1", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		_, err := uc.CreateSession(ctx, "user-1", "203.0.113.10", "test-agent")

		require.NoError(t, err)
		mockSessionRepo.AssertExpectations(t)
		mockSessionRepo.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("Success_ConcurrentCreatesHonorTheCap", func(t *testing.T) {
		store := newMemorySessionStore()
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}
		mockMonitor.On("Record", mock.Anything, securityDomain.SessionCreated, "user-1", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		uc := NewSessionUseCase(store, &serializedTxManager{}, mockMonitor, logger, 1, testInactivityWindow)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = uc.CreateSession(ctx, "user-1", "203.0.113.10", "test-agent")
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.LessOrEqual(t, store.countByUserID("user-1"), 1)
	})
}

func TestSessionUseCase_Terminate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeletesExistingSession", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		session := testSession("user-1", time.Now().UTC())
		mockSessionRepo.On("FindByID", ctx, session.ID).Return(session, nil)
		mockSessionRepo.On("Delete", ctx, session.ID).Return(nil).Once()

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		err := uc.Terminate(ctx, session.ID)

		require.NoError(t, err)
		mockSessionRepo.AssertExpectations(t)
	})

	t.Run("Error_MissingSessionIsInvalid", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		sessionID := uuid.Must(uuid.NewV7())
		mockSessionRepo.On("FindByID", ctx, sessionID).Return(nil, securityDomain.ErrSessionNotFound)

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		err := uc.Terminate(ctx, sessionID)

		assert.ErrorIs(t, err, securityDomain.ErrInvalidSession)
		mockSessionRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ActiveSessionTouchesLastActivity", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		session := testSession("user-1", time.Now().UTC().Add(-5*time.Minute))
		mockSessionRepo.On("FindByID", ctx, session.ID).Return(session, nil)
		mockSessionRepo.On("UpdateLastActivity", ctx, session.ID, mock.Anything).Return(nil).Once()

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		valid, err := uc.Validate(ctx, session.ID)

		require.NoError(t, err)
		assert.True(t, valid)
		mockSessionRepo.AssertExpectations(t)
	})

	t.Run("Success_ExpiredSessionIsDeletedWithEvent", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		session := testSession("user-1", time.Now().UTC().Add(-31*time.Minute))
		mockSessionRepo.On("FindByID", ctx, session.ID).Return(session, nil)
		mockSessionRepo.On("Delete", ctx, session.ID).Return(nil).Once()
		mockMonitor.On("Record", ctx, securityDomain.SessionExpired, "user-1", session.IPAddress, session.UserAgent, mock.Anything).
			Return(nil).Once()

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		valid, err := uc.Validate(ctx, session.ID)

		require.NoError(t, err)
		assert.False(t, valid)
		mockSessionRepo.AssertNotCalled(t, "UpdateLastActivity", mock.Anything, mock.Anything, mock.Anything)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Success_MissingSessionIsInvalid", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		sessionID := uuid.Must(uuid.NewV7())
		mockSessionRepo.On("FindByID", ctx, sessionID).Return(nil, securityDomain.ErrSessionNotFound)

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		valid, err := uc.Validate(ctx, sessionID)

		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestSessionUseCase_TerminateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeletesAllAndEmitsForcedLogout", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockSessionRepo.On("DeleteAllByUserID", ctx, "user-1").Return(3, nil)
		mockMonitor.On("Record", ctx, securityDomain.ForcedLogout, "user-1", "", "", mock.Anything).
			Return(nil).Once()

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		count, err := uc.TerminateAll(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, 3, count)
		mockMonitor.AssertExpectations(t)
	})
}

func TestSessionUseCase_ActiveSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FiltersExpiredSessions", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		now := time.Now().UTC()
		expired := testSession("user-1", now.Add(-time.Hour))
		active := testSession("user-1", now.Add(-time.Minute))
		mockSessionRepo.On("FindByUserID", ctx, "user-1").
			Return([]*securityDomain.Session{expired, active}, nil)

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		sessions, err := uc.ActiveSessions(ctx, "user-1")

		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, active.ID, sessions[0].ID)
	})
}

func TestSessionUseCase_PurgeExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeletesBeforeCutoff", func(t *testing.T) {
		mockSessionRepo := &usecaseMocks.MockSessionRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockSessionRepo.On("DeleteInactiveSince", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
			return time.Since(cutoff) >= testInactivityWindow
		})).Return(7, nil)

		uc := newTestSessionUseCase(mockSessionRepo, mockMonitor)
		count, err := uc.PurgeExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 7, count)
	})
}
