// Package database opens the visitlog store, migrates its schema and seeds
// reference data.
package database

import (
	"errors"
	"fmt"

	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every migrated model in dependency order.
func Models() []any {
	return []any{
		&model.User{},
		&model.Potencia{},
		&model.Rito{},
		&model.Grau{},
		&model.Sessao{},
		&model.Oriente{},
		&model.Loja{},
		&model.Visita{},
		&model.AuditLog{},
	}
}

// Open connects to the configured store. The schema is not touched; see Migrate.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case config.DatabaseTypePostgreSQL:
		dialector = postgres.Open(cfg.GetDSN())
	default:
		if err := cfg.EnsureDirectoryExists(); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dialector = sqlite.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Type, err)
	}

	if cfg.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrating %T: %w", m, err)
		}
	}
	return nil
}

// InitDB opens, migrates and seeds the store.
func InitDB(cfg *config.DatabaseConfig, seed SeedOptions) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = Close(db)
		return nil, err
	}
	if err := Seed(db, seed); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}

// Close checkpoints the sqlite WAL and closes the pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if db.Dialector.Name() == "sqlite" {
		if err := Checkpoint(db); err != nil {
			return fmt.Errorf("executing checkpoint: %w", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Checkpoint folds the sqlite WAL back into the main database file.
func Checkpoint(db *gorm.DB) error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isTableEmpty(db *gorm.DB, m any) (bool, error) {
	var count int64
	err := db.Model(m).Count(&count).Error
	return count == 0, err
}
