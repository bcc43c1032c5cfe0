package database

import (
	"backend/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError maps driver duplicate-key errors onto gorm.ErrDuplicatedKey,
// which the idempotency claim relies on.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.ReturnRecord{},
		&model.CollectionOrder{},
		&model.ShipmentManifest{},
		&model.NCRRecord{},
		&model.SequenceCounter{},
		&model.IdempotencyKey{},
	)
	if err != nil {
		logrus.WithError(err).Warn("Failed to auto-migrate models")
	}

	return db, nil
}
