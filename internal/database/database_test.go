package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// setupTestDB creates a fresh file-backed test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabaseWithOptions(dbPath, Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "file:./library.db?"+sqliteParams, buildDSN("./library.db"))
	assert.Equal(t, "file:x.db?cache=shared&"+sqliteParams, buildDSN("file:x.db?cache=shared"))
}

func TestNewDatabase_Migrates(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"books", "members", "issues", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	assert.NoError(t, db.Ping())
}

func TestDatabase_Constraints(t *testing.T) {
	db := setupTestDB(t)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		require.NoError(t, db.DB.Create(&entities.Member{Name: "Ada", Email: "ada@example.com"}).Error)
		err := db.DB.Create(&entities.Member{Name: "Other Ada", Email: "ada@example.com"}).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
	})

	t.Run("duplicate code is rejected, missing codes are not", func(t *testing.T) {
		code := "QA76"
		require.NoError(t, db.DB.Create(&entities.Book{Title: "A", Code: &code, Quantity: 1, Available: 1}).Error)
		err := db.DB.Create(&entities.Book{Title: "B", Code: &code, Quantity: 1, Available: 1}).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

		require.NoError(t, db.DB.Create(&entities.Book{Title: "C", Quantity: 1, Available: 1}).Error)
		require.NoError(t, db.DB.Create(&entities.Book{Title: "D", Quantity: 1, Available: 1}).Error)
	})

	t.Run("issue needs an existing book and member", func(t *testing.T) {
		now := time.Now().UTC()
		err := db.DB.Create(&entities.Issue{BookID: 999, MemberID: 999, IssueDate: now, DueDate: now}).Error
		assert.Error(t, err)
	})
}
