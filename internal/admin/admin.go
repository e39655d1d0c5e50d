// Package admin backs the operator surface: bcrypt-checked accounts, signed
// session tokens and an append-only audit trail.
package admin

import (
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/store"
)

// GetAccount retrieves an admin account by name.
func GetAccount(db *sqlx.DB, name string) (*models.AdminAccount, error) {
	var a models.AdminAccount
	err := db.Get(&a, `SELECT id, name, token_hash, created_at FROM admin_accounts WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// VerifyToken checks a plaintext token against the stored bcrypt hash.
func VerifyToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// CreateAccount creates or replaces an admin account (seeding and tests).
func CreateAccount(db *sqlx.DB, name, plainToken string, now float64) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO admin_accounts (name, token_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET token_hash = EXCLUDED.token_hash`,
		name, string(hashed), now)
	return err
}

// Authenticate validates a name and token pair and returns a signed session
// token good for 24 hours.
func Authenticate(db *sqlx.DB, jwtSecret, name, plainToken string) (string, error) {
	account, err := GetAccount(db, name)
	if err != nil {
		log.Printf("[ADMIN] No admin account found for %s", name)
		return "", fmt.Errorf("admin account not found")
	}
	if !VerifyToken(account.TokenHash, plainToken) {
		log.Printf("[ADMIN] Token verification failed for %s", name)
		return "", fmt.Errorf("invalid token")
	}

	exp := time.Now().Add(24 * time.Hour)
	claims := jwt.MapClaims{"admin_name": name, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	log.Printf("[ADMIN] Session token issued for %s", name)
	return signed, nil
}

// LogAction records an admin action in the audit trail. Audit failures are
// logged, never fatal.
func LogAction(db *sqlx.DB, adminName, ip, action, detail string) {
	_, err := db.Exec(`
		INSERT INTO admin_audit (admin_name, ip, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		adminName, ip, action, detail, store.Now())
	if err != nil {
		log.Printf("[ADMIN] Failed to log admin action: %v", err)
	}
}

// AuditLogs returns recent audit rows, newest first. A non-empty name
// filters to one admin.
func AuditLogs(db *sqlx.DB, name string, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	err := db.Select(&logs, `
		SELECT id, admin_name, ip, action, detail, created_at
		FROM admin_audit
		WHERE ($1 = '' OR admin_name = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		name, limit, offset)
	return logs, err
}
