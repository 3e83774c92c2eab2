package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// sqliteParams enables foreign keys, WAL and a busy timeout. _txlock=immediate
// makes every transaction take the write lock on BEGIN, so a check-then-update
// inside one transaction cannot interleave with another writer.
const sqliteParams = "_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

type Database struct {
	DB *gorm.DB
}

// Options tweaks how the database is opened.
type Options struct {
	LogLevel logger.LogLevel
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithOptions(dbPath, Options{LogLevel: logger.Info})
}

func NewDatabaseWithOptions(dbPath string, opts Options) (*Database, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(buildDSN(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(opts.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Member{},
		&entities.Issue{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func buildDSN(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + sqliteParams
	}
	return "file:" + dbPath + "?" + sqliteParams
}
