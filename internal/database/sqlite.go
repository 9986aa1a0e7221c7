package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqlitePragmas apply to file databases; database.options may override them.
var sqlitePragmas = map[string]string{
	"_foreign_keys": "1",
	"_journal_mode": "WAL",
	"_busy_timeout": "5000",
}

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, inMemory, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if inMemory {
		// the shared-cache database disappears with its last connection
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func buildSQLiteDSN(cfg Config) (dsn string, inMemory bool, err error) {
	if cfg.DSN != "" {
		return cfg.DSN, strings.Contains(cfg.DSN, "mode=memory"), nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		// a unique name keeps parallel test databases apart
		return fmt.Sprintf("file:portal-%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()), true, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", false, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	query := url.Values{}
	for key, value := range sqlitePragmas {
		query.Set(key, value)
	}
	for key, value := range cfg.Options {
		query.Set(key, value)
	}
	return "file:" + filepath.ToSlash(path) + "?" + query.Encode(), false, nil
}
