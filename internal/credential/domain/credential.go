package domain

import "time"

// Credential is a stored third-party credential (e.g. a git hosting token)
// belonging to one user in one org. The secret is held only as ciphertext
// with its per-record IV; plaintext exists solely in memory at use time.
type Credential struct {
	ID         string
	UserID     string
	OrgID      string
	Provider   string // e.g. "github", "gitlab"
	Ciphertext string // hex, integrity tag appended
	IV         string // hex, 16 random bytes, fresh per encryption
	Host       string // optional, for self-hosted providers
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
