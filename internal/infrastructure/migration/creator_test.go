package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stock records", "add_stock_records"},
		{"Add-Stock-Records", "add_stock_records"},
		{"add__stock__records", "add_stock_records"},
		{"Seed Units 2", "seed_units_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create woo tables", "Sync tables")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_woo_tables.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: create woo tables")
	assert.Contains(t, string(content), "-- Description: Sync tables")

	second, err := CreateMigration(dir, "seed units", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	t.Run("numbering follows the highest existing version", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000010_manual.up.sql"), nil, 0o644))
		mf, err := CreateMigration(dir, "next", "")
		require.NoError(t, err)
		assert.Equal(t, "000011", mf.Version)
	})

	t.Run("rejects names without usable characters", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("sorted up migrations only", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000002_seed.up.sql", "000002_seed.down.sql",
			"000001_create.up.sql", "000001_create.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

		list, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_create", "000002_seed"}, list)
	})
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for i, base := range list {
		v, ok := parseVersion(base)
		require.True(t, ok, base)
		assert.Equal(t, i+1, v, "versions are contiguous")
		assert.FileExists(t, filepath.Join(dir, base+".down.sql"))
	}
}
