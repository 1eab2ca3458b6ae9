// Package cli implements the command-line entry points that reuse the
// same service graph as the HTTP server.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/refbase/internal/attachments"
	"github.com/mrlokans/refbase/internal/config"
	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/collections"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/fulltext"
	"github.com/mrlokans/refbase/internal/importers"
	"github.com/mrlokans/refbase/internal/notify"
)

// ImportCommand imports one bibliographic source file into the library.
type ImportCommand struct {
	FilePath     string
	DatabasePath string
	StorageDir   string
	CollectionID uint
	NoCollection bool
	SkipIndex    bool
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	var collectionID uint64
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the source file to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.StorageDir, "storage", "./storage", "Directory for imported attachment files")
	fs.Uint64Var(&collectionID, "collection-id", 0, "Import into this existing collection instead of creating one")
	fs.BoolVar(&cmd.NoCollection, "no-collection", false, "Do not assign imported items to any collection")
	fs.BoolVar(&cmd.SkipIndex, "skip-index", false, "Skip full-text indexing of imported attachments")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a bibliographic source file (RIS, RDF/XML, MODS, or a ZIP\n")
		fmt.Fprintf(os.Stderr, "project bundle) into the library.\n\n")
		fmt.Fprintf(os.Stderr, "By default a new collection named after the source file is created.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file references.ris\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file export.rdf -collection-id 3\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	cmd.CollectionID = uint(collectionID)
	if cmd.CollectionID != 0 && cmd.NoCollection {
		return fmt.Errorf("-collection-id and -no-collection are mutually exclusive")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	if _, err := os.Stat(cmd.FilePath); os.IsNotExist(err) {
		return fmt.Errorf("source file not found: %s", cmd.FilePath)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	if err := os.MkdirAll(cmd.StorageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	itemsRepo := items.NewRepository(db)
	collectionsRepo := collections.NewRepository(db.DB)
	resolver := attachments.NewResolver(cmd.StorageDir, database.NewKey)
	bus := notify.NewBus()

	ftService, err := fulltext.NewService(db.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize full-text index: %w", err)
	}

	// The CLI has no task queue; attachments are indexed inline after the
	// import commits.
	var indexer importers.Indexer
	inline := &inlineIndexer{repo: itemsRepo, resolver: resolver, index: ftService}
	if !cmd.SkipIndex {
		indexer = inline
	}

	coordinator := importers.NewCoordinator(db, itemsRepo, collectionsRepo, resolver, bus, indexer)

	opts := importers.Options{}
	if cmd.NoCollection || cmd.CollectionID != 0 {
		createNew := false
		opts.CreateNewCollection = &createNew
		opts.TargetCollectionID = cmd.CollectionID
	}

	result, err := coordinator.ImportFile(context.Background(), cmd.FilePath, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d items from %s\n", len(result.ItemKeys), filepath.Base(cmd.FilePath))
	if result.CollectionID != 0 {
		fmt.Printf("Collection: %d\n", result.CollectionID)
	}
	if cmd.Verbose {
		for _, key := range result.ItemKeys {
			fmt.Printf("  %s\n", key)
		}
	}
	for _, warn := range result.Warnings {
		fmt.Printf("  [WARN] record %d: %s\n", warn.Record, warn.Message)
	}

	return nil
}

// inlineIndexer indexes attachments synchronously, batching through the
// service's concurrent IndexAll.
type inlineIndexer struct {
	repo     *items.Repository
	resolver *attachments.Resolver
	index    *fulltext.Service
}

func (x *inlineIndexer) Submit(attachmentKeys []string) {
	content := make(map[string][]byte, len(attachmentKeys))
	for _, key := range attachmentKeys {
		att, err := x.repo.GetAttachmentByKey(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] attachment %s: %v\n", key, err)
			continue
		}
		rc, err := x.resolver.Open(att)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] attachment %s: %v\n", key, err)
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] attachment %s: %v\n", key, err)
			continue
		}
		content[key] = raw
	}

	x.index.IndexAll(context.Background(), content)
	for key := range content {
		if err := x.repo.MarkIndexed(key); err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] attachment %s: %v\n", key, err)
		}
	}
}
