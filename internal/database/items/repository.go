// Package items provides database operations for the item graph: the
// transactional save used by imports and the queries used by rendering,
// search and the HTTP surface.
package items

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/entities"
)

type Repository struct {
	db  *gorm.DB
	lck *database.Database

	// beforeCommit runs inside the save transaction after all entities are
	// staged. Tests use it to force rollbacks.
	beforeCommit func(tx *gorm.DB) error
}

func NewRepository(d *database.Database) *Repository {
	return &Repository{db: d.DB, lck: d}
}

// Graph is one import's worth of entities, in parse order.
type Graph struct {
	LibraryID       uint
	Items           []*entities.Item
	StandaloneNotes []*entities.Note

	// NewCollection names a collection to create inside the save
	// transaction; SaveGraph stores its ID in CollectionID. When empty,
	// CollectionID may point at an existing collection (0 = no collection
	// assignment). Creating inside the transaction keeps a failed import
	// from leaving an empty collection behind.
	NewCollection string
	CollectionID  uint
}

// SaveGraph persists every entity of one import in a single transaction,
// serialized against other writers. Keys and timestamps are assigned to
// entities that lack them. On any error nothing is visible afterwards.
func (r *Repository) SaveGraph(g *Graph) error {
	return r.lck.WithCommitLock(func() error {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			now := time.Now().UTC()

			if g.NewCollection != "" {
				collection := &entities.Collection{
					Key:       database.NewKey(),
					LibraryID: g.LibraryID,
					Name:      g.NewCollection,
				}
				if err := tx.Create(collection).Error; err != nil {
					return fmt.Errorf("failed to create collection %q: %w", g.NewCollection, err)
				}
				g.CollectionID = collection.ID
			}

			for _, item := range g.Items {
				if err := r.stageItem(tx, g, item, now); err != nil {
					return err
				}
			}

			for _, note := range g.StandaloneNotes {
				note.LibraryID = g.LibraryID
				stampNote(note, now)
				if err := tx.Create(note).Error; err != nil {
					return fmt.Errorf("failed to save standalone note: %w", err)
				}
			}

			if r.beforeCommit != nil {
				if err := r.beforeCommit(tx); err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("transaction failed: %w", err)
		}
		return nil
	})
}

func (r *Repository) stageItem(tx *gorm.DB, g *Graph, item *entities.Item, now time.Time) error {
	item.LibraryID = g.LibraryID
	if item.Key == "" {
		item.Key = database.NewKey()
	}
	item.DateAdded = now
	item.DateModified = now

	for i := range item.Notes {
		item.Notes[i].LibraryID = g.LibraryID
		stampNote(&item.Notes[i], now)
	}

	for i := range item.Attachments {
		att := &item.Attachments[i]
		att.LibraryID = g.LibraryID
		if att.Key == "" {
			att.Key = database.NewKey()
		}
		att.DateAdded = now
		att.DateModified = now
		for j := range att.Annotations {
			ann := &att.Annotations[j]
			if ann.Key == "" {
				ann.Key = database.NewKey()
			}
			ann.DateAdded = now
			if err := resolveTags(tx, g.LibraryID, &ann.Tags); err != nil {
				return err
			}
		}
	}

	if err := resolveTags(tx, g.LibraryID, &item.Tags); err != nil {
		return err
	}

	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.Key, err)
	}

	if g.CollectionID != 0 {
		err := tx.Exec("INSERT INTO collection_items (collection_id, item_id) VALUES (?, ?)",
			g.CollectionID, item.ID).Error
		if err != nil {
			return fmt.Errorf("failed to assign item %s to collection: %w", item.Key, err)
		}
	}

	return nil
}

// resolveTags replaces tag values with existing rows where a tag of that
// name already exists in the library, so many2many creation reuses them.
func resolveTags(tx *gorm.DB, libraryID uint, tags *[]entities.Tag) error {
	for i := range *tags {
		t := &(*tags)[i]
		t.LibraryID = libraryID
		var existing entities.Tag
		result := tx.Where("library_id = ? AND name = ?", libraryID, t.Name).First(&existing)
		if result.Error == nil {
			*t = existing
		} else if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
	}
	return nil
}

func stampNote(note *entities.Note, now time.Time) {
	if note.Key == "" {
		note.Key = database.NewKey()
	}
	note.DateAdded = now
	note.DateModified = now
}

// GetByKey retrieves an item with its full graph.
func (r *Repository) GetByKey(key string) (*entities.Item, error) {
	var item entities.Item
	err := r.db.
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Creators", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attachments").
		Preload("Attachments.Annotations", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }).
		Preload("Attachments.Annotations.Rects", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Attachments.Annotations.Tags").
		Preload("Notes").
		Preload("Tags").
		Where("key = ?", key).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByKeys retrieves items preserving the order of the given keys.
func (r *Repository) GetByKeys(keys []string) ([]entities.Item, error) {
	items := make([]entities.Item, 0, len(keys))
	for _, key := range keys {
		item, err := r.GetByKey(key)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", key, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetAllTopLevel lists all items of a library in insertion order.
func (r *Repository) GetAllTopLevel(libraryID uint) ([]entities.Item, error) {
	var items []entities.Item
	err := r.db.
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Creators", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("library_id = ?", libraryID).
		Order("id ASC").Find(&items).Error
	return items, err
}

// CountItems reports how many items exist in a library. Used by atomicity
// checks.
func (r *Repository) CountItems(libraryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Item{}).Where("library_id = ?", libraryID).Count(&count).Error
	return count, err
}

// GetAttachmentByKey retrieves one attachment with its annotations.
func (r *Repository) GetAttachmentByKey(key string) (*entities.Attachment, error) {
	var att entities.Attachment
	err := r.db.
		Preload("Annotations", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }).
		Preload("Annotations.Rects", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Annotations.Tags").
		Where("key = ?", key).First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// MarkIndexed flags an attachment as present in the full-text index.
func (r *Repository) MarkIndexed(key string) error {
	return r.db.Model(&entities.Attachment{}).Where("key = ?", key).
		Update("indexed", true).Error
}

// UnindexedAttachments lists imported attachments that never made it into
// the full-text index (e.g. a crash between commit and submission).
func (r *Repository) UnindexedAttachments(limit int) ([]entities.Attachment, error) {
	var atts []entities.Attachment
	err := r.db.Where("indexed = ? AND storage_path <> ''", false).
		Order("id ASC").Limit(limit).Find(&atts).Error
	return atts, err
}

// IndexedAttachmentKeys lists the keys of all indexed attachments, the
// default search scope when the caller names none.
func (r *Repository) IndexedAttachmentKeys() ([]string, error) {
	var keys []string
	err := r.db.Model(&entities.Attachment{}).Where("indexed = ?", true).
		Order("id ASC").Pluck("key", &keys).Error
	return keys, err
}
