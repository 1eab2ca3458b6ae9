package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/refbase/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_BootstrapsUserLibrary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NotZero(t, db.UserLibraryID())

	var library entities.Library
	require.NoError(t, db.DB.First(&library, db.UserLibraryID()).Error)
	assert.True(t, library.IsUser)
}

func TestNewDatabase_ReopenKeepsLibrary(t *testing.T) {
	dbPath := "./test_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	firstID := db.UserLibraryID()
	require.NoError(t, db.Close())

	db, err = NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, firstID, db.UserLibraryID())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Library{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := NewKey()
		require.Len(t, key, 8)
		for _, r := range key {
			assert.Contains(t, keyAlphabet, string(r))
		}
		seen[key] = true
	}
	// Collisions over a thousand draws would mean a broken generator.
	assert.Greater(t, len(seen), 990)
}

func TestWithCommitLock_Serializes(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	active := 0
	maxActive := 0
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			db.WithCommitLock(func() error {
				active++
				if active > maxActive {
					maxActive = active
				}
				active--
				return nil
			})
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.Equal(t, 1, maxActive, "commits must never overlap")
}
