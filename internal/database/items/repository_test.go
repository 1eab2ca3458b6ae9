package items

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/collections"
	"github.com/mrlokans/refbase/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func bookItem(title string) *entities.Item {
	return &entities.Item{
		ItemType: entities.ItemTypeBook,
		Fields: []entities.ItemField{
			{Name: "title", Value: title, Position: 0},
			{Name: "date", Value: "2016", Position: 1},
		},
		Creators: []entities.Creator{
			{CreatorType: "author", LastName: "Smith", FirstName: "John", Position: 0},
		},
	}
}

func TestSaveGraph_AssignsKeysAndTimestamps(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	item := bookItem("Test Book")
	graph := &Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{item}}
	require.NoError(t, repo.SaveGraph(graph))

	assert.Len(t, item.Key, 8)
	assert.False(t, item.DateAdded.IsZero())
	assert.False(t, item.DateModified.IsZero())
	assert.NotZero(t, item.ID)
}

func TestSaveGraph_RoundTripsFullGraph(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	item := bookItem("Round Trip")
	item.Notes = []entities.Note{{Content: "<p>Child</p>"}}
	item.Tags = []entities.Tag{{Name: "imported"}}
	item.Attachments = []entities.Attachment{{
		Title:       "document.pdf",
		MimeType:    "application/pdf",
		LinkMode:    entities.LinkModeImportedFile,
		StoragePath: "KEY/document.pdf",
		Annotations: []entities.Annotation{
			{
				Text:      "second in reading order",
				PageIndex: 2,
				SortIndex: "00002|000045|00012",
				Rects:     []entities.AnnotationRect{{Seq: 0, X1: 1, Y1: 2, X2: 3, Y2: 4}},
			},
			{
				Text:      "first in reading order",
				PageIndex: 0,
				SortIndex: "00000|000103|00206",
				Rects: []entities.AnnotationRect{
					{Seq: 0, X1: 10, Y1: 700, X2: 200, Y2: 712},
					{Seq: 1, X1: 10, Y1: 685, X2: 200, Y2: 712},
				},
				Tags: []entities.Tag{{Name: "red"}, {Name: "blue"}},
			},
		},
	}}

	graph := &Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{item}}
	require.NoError(t, repo.SaveGraph(graph))

	got, err := repo.GetByKey(item.Key)
	require.NoError(t, err)

	assert.Equal(t, entities.ItemTypeBook, got.ItemType)
	assert.Equal(t, "Round Trip", got.Field("title"))
	assert.Equal(t, "2016", got.Field("date"))
	require.Len(t, got.Creators, 1)
	assert.Equal(t, "Smith", got.Creators[0].LastName)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "<p>Child</p>", got.Notes[0].Content)
	require.Len(t, got.Tags, 1)

	require.Len(t, got.Attachments, 1)
	anns := got.Attachments[0].Annotations
	require.Len(t, anns, 2)
	// Annotations come back in sort-index order, rects in seq order.
	assert.Equal(t, "first in reading order", anns[0].Text)
	assert.Equal(t, "second in reading order", anns[1].Text)
	require.Len(t, anns[0].Rects, 2)
	assert.Equal(t, float64(700), anns[0].Rects[0].Y1)
	assert.Len(t, anns[0].Tags, 2)
}

func TestSaveGraph_RollsBackOnFailure(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	before, err := repo.CountItems(db.UserLibraryID())
	require.NoError(t, err)

	forced := errors.New("forced failure")
	repo.beforeCommit = func(tx *gorm.DB) error { return forced }

	item := bookItem("Never Visible")
	graph := &Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{item}}
	err = repo.SaveGraph(graph)
	require.Error(t, err)
	assert.ErrorIs(t, err, forced)

	repo.beforeCommit = nil
	after, err := repo.CountItems(db.UserLibraryID())
	require.NoError(t, err)
	assert.Equal(t, before, after, "no new items may be queryable after a rollback")

	_, err = repo.GetByKey(item.Key)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaveGraph_ReusesExistingTags(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	first := bookItem("First")
	first.Tags = []entities.Tag{{Name: "shared"}}
	require.NoError(t, repo.SaveGraph(&Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{first}}))

	second := bookItem("Second")
	second.Tags = []entities.Tag{{Name: "shared"}}
	require.NoError(t, repo.SaveGraph(&Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{second}}))

	var count int64
	require.NoError(t, db.DB.Model(&entities.Tag{}).Where("name = ?", "shared").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveGraph_CollectionMembershipKeepsOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)
	collectionsRepo := collections.NewRepository(db.DB)

	collection, err := collectionsRepo.Create(db.UserLibraryID(), "references")
	require.NoError(t, err)

	graph := &Graph{
		LibraryID:    db.UserLibraryID(),
		Items:        []*entities.Item{bookItem("A"), bookItem("B"), bookItem("C")},
		CollectionID: collection.ID,
	}
	require.NoError(t, repo.SaveGraph(graph))

	keys, err := collectionsRepo.ItemKeys(collection.ID)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, graph.Items[0].Key, keys[0])
	assert.Equal(t, graph.Items[1].Key, keys[1])
	assert.Equal(t, graph.Items[2].Key, keys[2])
}

func TestSaveGraph_CreatesNamedCollection(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)
	collectionsRepo := collections.NewRepository(db.DB)

	graph := &Graph{
		LibraryID:     db.UserLibraryID(),
		Items:         []*entities.Item{bookItem("A"), bookItem("B")},
		NewCollection: "fresh-import",
	}
	require.NoError(t, repo.SaveGraph(graph))
	require.NotZero(t, graph.CollectionID)

	collection, err := collectionsRepo.GetByID(graph.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-import", collection.Name)
	assert.Len(t, collection.Key, 8)

	keys, err := collectionsRepo.ItemKeys(graph.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, []string{graph.Items[0].Key, graph.Items[1].Key}, keys)
}

func TestSaveGraph_RollbackTakesNewCollectionAlong(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)
	collectionsRepo := collections.NewRepository(db.DB)

	forced := errors.New("forced failure")
	repo.beforeCommit = func(tx *gorm.DB) error { return forced }

	graph := &Graph{
		LibraryID:     db.UserLibraryID(),
		Items:         []*entities.Item{bookItem("Never Visible")},
		NewCollection: "doomed",
	}
	err := repo.SaveGraph(graph)
	require.Error(t, err)

	repo.beforeCommit = nil
	_, err = collectionsRepo.GetByName(db.UserLibraryID(), "doomed")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound,
		"a rolled-back import must not leave an empty collection")
}

func TestSaveGraph_StandaloneNotes(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	note := &entities.Note{Content: "<p>Standalone</p>"}
	graph := &Graph{LibraryID: db.UserLibraryID(), StandaloneNotes: []*entities.Note{note}}
	require.NoError(t, repo.SaveGraph(graph))

	assert.Len(t, note.Key, 8)
	assert.Nil(t, note.ItemID)
}

func TestMarkIndexedAndUnindexedAttachments(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	item := bookItem("With Attachment")
	item.Attachments = []entities.Attachment{
		{Title: "a.pdf", LinkMode: entities.LinkModeImportedFile, StoragePath: "K1/a.pdf"},
		{Title: "b.pdf", LinkMode: entities.LinkModeImportedFile, StoragePath: "K2/b.pdf"},
	}
	require.NoError(t, repo.SaveGraph(&Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{item}}))

	pending, err := repo.UnindexedAttachments(10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.MarkIndexed(item.Attachments[0].Key))

	pending, err = repo.UnindexedAttachments(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, item.Attachments[1].Key, pending[0].Key)

	indexed, err := repo.IndexedAttachmentKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{item.Attachments[0].Key}, indexed)
}

func TestGetByKeys_PreservesRequestOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewRepository(db)

	a, b := bookItem("A"), bookItem("B")
	require.NoError(t, repo.SaveGraph(&Graph{LibraryID: db.UserLibraryID(), Items: []*entities.Item{a, b}}))

	got, err := repo.GetByKeys([]string{b.Key, a.Key})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Field("title"))
	assert.Equal(t, "A", got[1].Field("title"))
}
