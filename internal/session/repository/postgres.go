package repository

import (
	"context"
	"database/sql"
	"errors"

	"agent-session-gateway/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that reads from the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = "id, user_id, org_id, status, runtime_id, created_at, ended_at"

// FindActiveOwned returns the ACTIVE session owned by userID in orgID, or nil
// when no row matches every filter. The filters are part of the query so the
// database never discloses sessions outside the caller's tenant.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindActiveOwned(ctx context.Context, id, userID, orgID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM agent_sessions WHERE id = $1 AND user_id = $2 AND org_id = $3 AND status = $4",
		id, userID, orgID, string(domain.StatusActive),
	)
	return scanSession(row)
}

// FindOwned returns the session owned by userID in orgID regardless of
// status, or nil when no row matches every filter.
func (r *PostgresRepository) FindOwned(ctx context.Context, id, userID, orgID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM agent_sessions WHERE id = $1 AND user_id = $2 AND org_id = $3",
		id, userID, orgID,
	)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	var runtimeID sql.NullString
	var endedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.OrgID, &s.Status, &runtimeID, &s.CreatedAt, &endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if runtimeID.Valid {
		s.RuntimeID = runtimeID.String
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return &s, nil
}
