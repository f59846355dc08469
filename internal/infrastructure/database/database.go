package database

import (
	"causeway-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for all core models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Org{},
		&domain.Membership{},
		&domain.Invitation{},
		&domain.Cause{},
		&domain.Listing{},
		&domain.Order{},
		&domain.PaymentEvent{},
	); err != nil {
		return err
	}
	// At most one pending invitation per (org, email); concurrent issuers
	// racing past the supersession update hit this instead of committing
	// a second pending row.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_org_email ON "Invitations" (org_id, email) WHERE status = 'pending'`).Error
}
