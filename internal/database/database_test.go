package database

import (
	"path/filepath"
	"testing"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite(t *testing.T) {
	cfg := &config.Config{
		StoreDriver: config.StoreSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "test.sqlite3"),
	}

	db, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.True(t, db.Migrator().HasTable(&models.KVEntry{}))

	entry := models.KVEntry{Key: "profile_abc", Value: []byte(`{"name":"Sam"}`)}
	require.NoError(t, db.Create(&entry).Error)

	var got models.KVEntry
	require.NoError(t, db.First(&got, "key = ?", "profile_abc").Error)
	assert.Equal(t, entry.Value, got.Value)
}

func TestNewRejectsRedisDriver(t *testing.T) {
	_, err := New(&config.Config{StoreDriver: config.StoreRedis})
	assert.Error(t, err)
}
