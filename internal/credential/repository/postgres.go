package repository

import (
	"context"
	"database/sql"
	"errors"

	"agent-session-gateway/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credentialColumns = "id, user_id, org_id, provider, ciphertext, iv, host, created_at, updated_at"

// GetByProvider returns the credential for the user/org/provider triple, or
// nil if not found. It returns an error only for database failures.
func (r *PostgresRepository) GetByProvider(ctx context.Context, userID, orgID, provider string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM credentials WHERE user_id = $1 AND org_id = $2 AND provider = $3",
		userID, orgID, provider,
	)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListByUser returns all credentials for the user in the org.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID, orgID string) ([]*domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+credentialColumns+" FROM credentials WHERE user_id = $1 AND org_id = $2 ORDER BY provider",
		userID, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Upsert inserts the credential or replaces the existing record for the same
// user/org/provider. The credential must have ID set.
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, org_id, provider, ciphertext, iv, host, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, org_id, provider)
		 DO UPDATE SET ciphertext = EXCLUDED.ciphertext, iv = EXCLUDED.iv, host = EXCLUDED.host, updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.OrgID, c.Provider, c.Ciphertext, c.IV, c.Host, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Delete removes the credential for the user/org/provider triple.
func (r *PostgresRepository) Delete(ctx context.Context, userID, orgID, provider string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE user_id = $1 AND org_id = $2 AND provider = $3",
		userID, orgID, provider,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*domain.Credential, error) {
	var c domain.Credential
	var host sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.OrgID, &c.Provider, &c.Ciphertext, &c.IV, &host, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if host.Valid {
		c.Host = host.String
	}
	return &c, nil
}
