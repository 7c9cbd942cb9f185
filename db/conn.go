// Package db opens the relational store used by the auth core
package db

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New opens the database for driver and migrates the schema. Unique constraint
// violations are translated into gorm.ErrDuplicatedKey for both drivers.
func New(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverSQLite, "":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(sqlitePath(dsn)); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to %s", sqlitePath(dsn))
			}
		}

		return OpenSQLite(dsn)
	case DriverPostgres:
		db, err := Open(postgres.Open(dsn))
		if err != nil {
			return nil, err
		}

		if err := Migrate(db); err != nil {
			return nil, err
		}

		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenSQLite opens and migrates a sqlite database at dsn
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle, %w", err)
	}

	// SQLite only allows one writer, a single connection avoids SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open wraps gorm.Open with the settings every store in the app relies on
func Open(d gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(model.User{}, model.Session{}, model.ResendRequest{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}

	return p
}
