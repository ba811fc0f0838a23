package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bussywales/rentnow-sub000/config"
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// Init opens the database connection, runs migrations, and applies the
// schema-level booking constraints.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver != "sqlite" && cfg.EnableRangeConstraint {
		if err := applyRangeConstraintDDL(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate creates or updates the engine's tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.ShortletSettings{},
		&model.ShortletBooking{},
		&model.ShortletBlock{},
		&model.ShortletPayout{},
		&model.PayoutAuditEntry{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// applyRangeConstraintDDL pushes the no-overlap invariant into the schema:
// Postgres rejects any insert of an active booking whose date range
// intersects another active booking for the same property, independently of
// the application-level check. SQLSTATE 23P01 on violation.
func applyRangeConstraintDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE shortlet_bookings DROP CONSTRAINT IF EXISTS shortlet_bookings_no_overlap;",

		"ALTER TABLE shortlet_bookings ADD CONSTRAINT shortlet_bookings_no_overlap " +
			"EXCLUDE USING GIST (property_id WITH =, daterange(check_in::date, check_out::date) WITH &&) " +
			"WHERE (status IN ('pending_payment', 'pending', 'confirmed'));",

		"CREATE INDEX IF NOT EXISTS idx_blocks_property_range ON shortlet_blocks " +
			"USING GIST (property_id, daterange(date_from::date, date_to::date));",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
