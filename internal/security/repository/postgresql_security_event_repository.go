package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// PostgreSQLSecurityEventRepository implements security event persistence for PostgreSQL.
//
// Event metadata is stored as a JSONB column; a nil metadata map is persisted
// as NULL rather than an empty object.
type PostgreSQLSecurityEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecurityEventRepository creates a new PostgreSQL security event repository instance.
func NewPostgreSQLSecurityEventRepository(db *sql.DB) *PostgreSQLSecurityEventRepository {
	return &PostgreSQLSecurityEventRepository{db: db}
}

// Create appends a security event to the log.
func (p *PostgreSQLSecurityEventRepository) Create(
	ctx context.Context,
	event *securityDomain.SecurityEvent,
) error {
	querier := database.GetTx(ctx, p.db)

	var metadata []byte
	if event.Metadata != nil {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event metadata")
		}
		metadata = data
	}

	query := `INSERT INTO security_events (id, event_type, user_id, ip_address, user_agent, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		event.ID,
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
func (p *PostgreSQLSecurityEventRepository) FindByFilter(
	ctx context.Context,
	filter securityDomain.EventFilter,
) ([]*securityDomain.SecurityEvent, error) {
	querier := database.GetTx(ctx, p.db)

	var sb strings.Builder
	sb.WriteString(`SELECT id, event_type, user_id, ip_address, user_agent, metadata, created_at
					FROM security_events`)

	conditions := make([]string, 0)
	args := make([]any, 0)
	placeholder := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Type != "" {
		conditions = append(conditions, "event_type = "+placeholder(filter.Type))
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+placeholder(filter.UserID))
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "created_at >= "+placeholder(filter.Start))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "created_at <= "+placeholder(filter.End))
	}

	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + placeholder(filter.Limit))
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
		event, err := scanSecurityEvent(rows)
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
func (p *PostgreSQLSecurityEventRepository) CountByTypeAndUser(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID string,
	since time.Time,
) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*)
			  FROM security_events
			  WHERE event_type = $1 AND user_id = $2 AND created_at >= $3`

	var count int
	if err := querier.QueryRowContext(ctx, query, eventType, userID, since).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count security events")
	}

	return count, nil
}

// CountByTypeInRange returns per-type event counts within the interval.
func (p *PostgreSQLSecurityEventRepository) CountByTypeInRange(
	ctx context.Context,
	start time.Time,
	end time.Time,
) (map[securityDomain.EventType]int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT event_type, COUNT(*)
			  FROM security_events
			  WHERE created_at >= $1 AND created_at <= $2
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurityEvent(row rowScanner) (*securityDomain.SecurityEvent, error) {
	var event securityDomain.SecurityEvent
	var metadata []byte

	err := row.Scan(
		&event.ID,
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

	if metadata != nil {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal event metadata")
		}
	}

	return &event, nil
}
