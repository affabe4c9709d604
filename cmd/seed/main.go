// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev session (dev-session-001) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"agent-session-gateway/internal/config"
	"agent-session-gateway/internal/db"
	"agent-session-gateway/internal/security"
)

const (
	devUserID    = "dev-user-001"
	devUser2ID   = "dev-user-002"
	devOrgID     = "dev-org-001"
	devOrg2ID    = "dev-org-002"
	devSessionID = "dev-session-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var existing string
	err = conn.QueryRowContext(ctx, "SELECT id FROM agent_sessions WHERE id = $1", devSessionID).Scan(&existing)
	if err == nil {
		log.Println("Seed already applied (dev-session-001 exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()
	ended := now.Add(-time.Hour)

	sessions := []struct {
		id, userID, orgID, status, runtimeID string
		endedAt                              *time.Time
	}{
		// Active session with a runtime: ticket issuance succeeds.
		{devSessionID, devUserID, devOrgID, "ACTIVE", "rt-42", nil},
		// Active session without a runtime: NoRuntimeAssigned path.
		{"dev-session-002", devUserID, devOrgID, "ACTIVE", "", nil},
		// Ended session: merged not-found on ticket issuance.
		{"dev-session-003", devUserID, devOrgID, "ENDED", "rt-7", &ended},
		// Same org, other owner: indistinguishable from absent for dev-user-001.
		{"dev-session-004", devUser2ID, devOrgID, "ACTIVE", "rt-9", nil},
		// Other tenant entirely.
		{"dev-session-005", devUserID, devOrg2ID, "ACTIVE", "rt-11", nil},
	}

	for _, s := range sessions {
		var runtimeID any
		if s.runtimeID != "" {
			runtimeID = s.runtimeID
		}
		var endedAt any
		if s.endedAt != nil {
			endedAt = *s.endedAt
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO agent_sessions (id, user_id, org_id, status, runtime_id, created_at, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.id, s.userID, s.orgID, s.status, runtimeID, now, endedAt,
		); err != nil {
			log.Fatalf("create session %s: %v", s.id, err)
		}
	}

	// One stored credential so the credentials routes have data in dev.
	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("cipher: %v", err)
	}
	ciphertext, iv, err := cipher.Encrypt("dev-github-token")
	if err != nil {
		log.Fatalf("encrypt dev credential: %v", err)
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, org_id, provider, ciphertext, iv, host, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, org_id, provider) DO NOTHING`,
		"dev-credential-001", devUserID, devOrgID, "github", ciphertext, iv, "github.com", now, now,
	); err != nil {
		log.Fatalf("create dev credential: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Dev identity: user=%s org=%s, active session %s on runtime rt-42", devUserID, devOrgID, devSessionID)
}
