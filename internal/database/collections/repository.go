// Package collections provides database operations for collection
// management.
package collections

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(id uint) (*entities.Collection, error) {
	var collection entities.Collection
	if err := r.db.First(&collection, id).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByName returns the first collection with the given name at the top
// nesting level of the library.
func (r *Repository) GetByName(libraryID uint, name string) (*entities.Collection, error) {
	var collection entities.Collection
	err := r.db.Where("library_id = ? AND name = ? AND parent_id IS NULL", libraryID, name).
		Order("id ASC").First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *Repository) Create(libraryID uint, name string) (*entities.Collection, error) {
	collection := &entities.Collection{
		Key:       database.NewKey(),
		LibraryID: libraryID,
		Name:      name,
	}
	if err := r.db.Create(collection).Error; err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return collection, nil
}

// ItemKeys returns the keys of top-level items assigned to a collection,
// in insertion order.
func (r *Repository) ItemKeys(collectionID uint) ([]string, error) {
	var keys []string
	err := r.db.Table("items").
		Joins("JOIN collection_items ON collection_items.item_id = items.id").
		Where("collection_items.collection_id = ?", collectionID).
		Order("items.id ASC").
		Pluck("items.key", &keys).Error
	return keys, err
}
