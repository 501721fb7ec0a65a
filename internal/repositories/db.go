// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/logger"
	"bankcore/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// appendOnlyStatements install a trigger that rejects UPDATE and DELETE on
// the ledger table, so the append-only rule holds for raw SQL as well.
var appendOnlyStatements = []string{
	`CREATE OR REPLACE FUNCTION transfer_records_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'transfer_records is append-only';
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS transfer_records_append_only ON transfer_records`,
	`CREATE TRIGGER transfer_records_append_only
	BEFORE UPDATE OR DELETE ON transfer_records
	FOR EACH ROW EXECUTE FUNCTION transfer_records_append_only()`,
}

// DSN builds the PostgreSQL connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
}

// InitDB opens the database connection, configures the pool and applies
// migrations.
func InitDB(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger to ignore "record not found" errors
	gormLog := gormlogger.New(
		logger.StdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("PostgreSQL connected and migrations applied",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.TransferRecord{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, stmt := range appendOnlyStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install append-only trigger: %w", err)
		}
	}
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
