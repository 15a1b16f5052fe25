package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateAndLockTimeoutOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"privileges", "roles", "users", "products", "sales", "requests"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return SetLockTimeout(tx, 250*time.Millisecond)
	})
	assert.NoError(t, err)
}
