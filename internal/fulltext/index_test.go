package fulltext

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (*Service, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	service, err := NewService(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return service, cleanup
}

func TestIndexAndFindText(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, service.Index(ctx, "AAAAAAAA", []byte("<html><body>The quick brown fox jumps</body></html>")))
	require.NoError(t, service.Index(ctx, "BBBBBBBB", []byte("slow green turtle crawls")))

	matches, err := service.FindText(ctx, []string{"AAAAAAAA", "BBBBBBBB"}, "brown fox")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAAAAAAA", matches[0].AttachmentKey)

	// Every token must be present; a partial hit is no match.
	matches, err = service.FindText(ctx, []string{"AAAAAAAA", "BBBBBBBB"}, "brown turtle")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindText_MarkupStrippedFromQueryAndContent(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, service.Index(ctx, "AAAAAAAA", []byte("<p>annotated bibliography</p>")))

	matches, err := service.FindText(ctx, []string{"AAAAAAAA"}, "bibliography")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	// Tag names never become tokens.
	matches, err = service.FindText(ctx, []string{"AAAAAAAA"}, "p")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndex_ReindexReplaces(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, service.Index(ctx, "AAAAAAAA", []byte("original wording")))
	require.NoError(t, service.Index(ctx, "AAAAAAAA", []byte("replacement phrasing")))

	matches, err := service.FindText(ctx, []string{"AAAAAAAA"}, "original")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = service.FindText(ctx, []string{"AAAAAAAA"}, "replacement")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFindText_EmptyInputs(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	matches, err := service.FindText(ctx, nil, "anything")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = service.FindText(ctx, []string{"AAAAAAAA"}, "   ")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndexAll_IndexesEveryAttachment(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	service.IndexAll(ctx, map[string][]byte{
		"AAAAAAAA": []byte("alpha document"),
		"BBBBBBBB": []byte("beta document"),
		"CCCCCCCC": []byte("gamma document"),
	})

	matches, err := service.FindText(ctx, []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"}, "document")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
