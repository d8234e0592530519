package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// MySQLSecurityEventRepository implements security event persistence for MySQL.
// Uses BINARY(16) for event IDs and a JSON column for metadata.
type MySQLSecurityEventRepository struct {
	db *sql.DB
}

// NewMySQLSecurityEventRepository creates a new MySQL security event repository instance.
func NewMySQLSecurityEventRepository(db *sql.DB) *MySQLSecurityEventRepository {
	return &MySQLSecurityEventRepository{db: db}
}

// Create appends a security event to the log.
func (m *MySQLSecurityEventRepository) Create(
	ctx context.Context,
	event *securityDomain.SecurityEvent,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	var metadata []byte
	if event.Metadata != nil {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event metadata")
		}
		metadata = data
	}

	query := `INSERT INTO security_events (id, event_type, user_id, ip_address, user_agent, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		event.Type,
		event.UserID,
		event.IPAddress,
		event.UserAgent,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create security event")
	}

	return nil
}

// FindByFilter returns events matching the filter, newest first. Zero-valued
// filter fields are ignored.
func (m *MySQLSecurityEventRepository) FindByFilter(
	ctx context.Context,
	filter securityDomain.EventFilter,
) ([]*securityDomain.SecurityEvent, error) {
	querier := database.GetTx(ctx, m.db)

	var sb strings.Builder
	sb.WriteString(`SELECT id, event_type, user_id, ip_address, user_agent, metadata, created_at
					FROM security_events`)

	conditions := make([]string, 0)
	args := make([]any, 0)

	if filter.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.Type)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.End)
	}

	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := querier.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list security events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*securityDomain.SecurityEvent, 0)
	for rows.Next() {
		event, err := scanMySQLSecurityEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate security events")
	}

	return events, nil
}

// CountByTypeAndUser counts events of one type for one user since a cutoff.
// Backs the sliding-window suspicious activity check.
func (m *MySQLSecurityEventRepository) CountByTypeAndUser(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID string,
	since time.Time,
) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*)
			  FROM security_events
			  WHERE event_type = ? AND user_id = ? AND created_at >= ?`

	var count int
	if err := querier.QueryRowContext(ctx, query, eventType, userID, since).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count security events")
	}

	return count, nil
}

// CountByTypeInRange returns per-type event counts within the interval.
func (m *MySQLSecurityEventRepository) CountByTypeInRange(
	ctx context.Context,
	start time.Time,
	end time.Time,
) (map[securityDomain.EventType]int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT event_type, COUNT(*)
			  FROM security_events
			  WHERE created_at >= ? AND created_at <= ?
			  GROUP BY event_type`

	rows, err := querier.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count security events")
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[securityDomain.EventType]int)
	for rows.Next() {
		var eventType securityDomain.EventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan event count")
		}
		counts[eventType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate event counts")
	}

	return counts, nil
}

func scanMySQLSecurityEvent(row rowScanner) (*securityDomain.SecurityEvent, error) {
	var event securityDomain.SecurityEvent
	var rawID []byte
	var metadata []byte

	err := row.Scan(
		&rawID,
		&event.Type,
		&event.UserID,
		&event.IPAddress,
		&event.UserAgent,
		&metadata,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan security event")
	}

	if event.ID, err = uuid.FromBytes(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse event id")
	}

	if metadata != nil {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal event metadata")
		}
	}

	return &event, nil
}
