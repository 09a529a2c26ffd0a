package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/db"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db.NewFromGorm(conn, db.DialectSQLite)
}

func TestEmbeddedMigrationsApplyToSQLite(t *testing.T) {
	client := openSQLite(t)
	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), sqlDB, client.Dialect(), "up"))

	version, err := CurrentVersion(sqlDB, client.Dialect())
	require.NoError(t, err)
	assert.Equal(t, int64(20260301120000), version)

	store, err := db.NewKVStore(client)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "profile/p/aether_logged_in", []byte("true")))
}

func TestMaybeAutoRunHonorsFlag(t *testing.T) {
	client := openSQLite(t)
	cfg := &config.Config{}

	require.NoError(t, MaybeAutoRun(context.Background(), cfg, logger.Nop(), client))
	assert.False(t, client.DB().Migrator().HasTable("kv_entries"))

	cfg.DB.AutoMigrate = true
	require.NoError(t, MaybeAutoRun(context.Background(), cfg, logger.Nop(), client))
	assert.True(t, client.DB().Migrator().HasTable("kv_entries"))
}

func TestMigrationFilesValidate(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
	require.NoError(t, ValidateEmbedded())
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Index!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.Base(path), "_add_order_index.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))
}

func TestCreateSQLMigrationRejectsDuplicateAndEmptyNames(t *testing.T) {
	pinned := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	prev := nowUTC
	nowUTC = func() time.Time { return pinned }
	t.Cleanup(func() { nowUTC = prev })

	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "prune idempotency")
	require.NoError(t, err)
	assert.Equal(t, "20260302093000_prune_idempotency.sql", filepath.Base(path))

	_, err = CreateSQLMigration(dir, "prune idempotency")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = CreateSQLMigration(dir, "  !!  ")
	require.Error(t, err)
}
