// Package database owns the persistent store: schema migration, the user
// library bootstrap, stable key generation, and the commit lock that
// serializes writer transactions.
package database

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/refbase/internal/entities"
)

// keyAlphabet excludes ambiguous characters (0/O, 1/l).
const (
	keyAlphabet = "23456789ABCDEFGHIJKLMNPQRSTUVWXYZ"
	keyLength   = 8
)

const userLibraryName = "My Library"

type Database struct {
	DB *gorm.DB

	// commitMu serializes writer transactions: parsing and normalization
	// run concurrently across imports, commits do not.
	commitMu sync.Mutex

	userLibraryID uint
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Library{},
		&entities.Collection{},
		&entities.Item{},
		&entities.ItemField{},
		&entities.Creator{},
		&entities.Attachment{},
		&entities.Note{},
		&entities.Annotation{},
		&entities.AnnotationRect{},
		&entities.Tag{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.ensureUserLibrary(); err != nil {
		return nil, fmt.Errorf("failed to bootstrap user library: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("database initialized")

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UserLibraryID returns the always-present user library's ID.
func (d *Database) UserLibraryID() uint {
	return d.userLibraryID
}

// WithCommitLock runs fn while holding the writer lock. At most one
// transaction commits at a time.
func (d *Database) WithCommitLock(fn func() error) error {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()
	return fn()
}

func (d *Database) ensureUserLibrary() error {
	var lib entities.Library
	result := d.DB.Where("is_user = ?", true).First(&lib)
	if result.Error == gorm.ErrRecordNotFound {
		lib = entities.Library{Name: userLibraryName, IsUser: true}
		if err := d.DB.Create(&lib).Error; err != nil {
			return err
		}
	} else if result.Error != nil {
		return result.Error
	}
	d.userLibraryID = lib.ID
	return nil
}

// NewKey generates an 8-character opaque entity key.
func NewKey() string {
	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return string(buf)
}
