// Package importers orchestrates the import pipeline: format detection,
// parsing, normalization, attachment resolution, the single write
// transaction, the batched notification, and the post-commit full-text
// submission.
package importers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/refbase/internal/annotations"
	"github.com/mrlokans/refbase/internal/attachments"
	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/collections"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
	"github.com/mrlokans/refbase/internal/formats/mods"
	"github.com/mrlokans/refbase/internal/formats/rdf"
	"github.com/mrlokans/refbase/internal/formats/ris"
	"github.com/mrlokans/refbase/internal/formats/zipproject"
	"github.com/mrlokans/refbase/internal/normalize"
	"github.com/mrlokans/refbase/internal/notify"
)

// Indexer receives attachment keys for full-text indexing after commit.
// Submission must not block and its outcome must not affect the import.
type Indexer interface {
	Submit(attachmentKeys []string)
}

// Options controls where imported items land. A nil CreateNewCollection
// means the default: create one named after the source file.
type Options struct {
	CreateNewCollection *bool
	TargetCollectionID  uint
}

// Result is the outcome of one import: created top-level item keys in
// parse order, plus record-scoped warnings.
type Result struct {
	ItemKeys     []string          `json:"item_keys"`
	CollectionID uint              `json:"collection_id,omitempty"`
	Warnings     []formats.Warning `json:"warnings,omitempty"`
}

type Coordinator struct {
	db          *database.Database
	items       *items.Repository
	collections *collections.Repository
	resolver    *attachments.Resolver
	bus         *notify.Bus
	indexer     Indexer
}

func NewCoordinator(
	db *database.Database,
	itemsRepo *items.Repository,
	collectionsRepo *collections.Repository,
	resolver *attachments.Resolver,
	bus *notify.Bus,
	indexer Indexer,
) *Coordinator {
	return &Coordinator{
		db:          db,
		items:       itemsRepo,
		collections: collectionsRepo,
		resolver:    resolver,
		bus:         bus,
		indexer:     indexer,
	}
}

// newParser constructs the parser for a detected format.
func newParser(format formats.Format) (formats.Parser, error) {
	switch format {
	case formats.FormatRIS:
		return ris.NewParser(), nil
	case formats.FormatRDF:
		return rdf.NewParser(), nil
	case formats.FormatMODS:
		return mods.NewParser(), nil
	case formats.FormatZIPProject:
		return zipproject.NewParser(), nil
	default:
		return nil, formats.ErrUnrecognizedFormat
	}
}

// ImportFile runs the whole pipeline for one source file. All staged
// entities become visible atomically; failures before commit leave no
// trace. Exactly one ItemsAdded notification is published per successful
// import.
func (c *Coordinator) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	format, err := formats.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	parser, err := newParser(format)
	if err != nil {
		return nil, err
	}
	if cleaner, ok := parser.(formats.Cleaner); ok {
		defer cleaner.Cleanup()
	}

	tree, warnings, err := parser.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", filepath.Base(path), format, err)
	}

	graph := &items.Graph{LibraryID: c.db.UserLibraryID()}
	for i := range tree.Records {
		rec := &tree.Records[i]
		item := normalize.Record(format, rec)

		for _, ref := range rec.Attachments {
			att, warn := c.resolver.Resolve(tree.BaseDir, i, ref)
			if warn != nil {
				warnings = append(warnings, *warn)
				continue
			}
			for _, raw := range ref.Annotations {
				att.Annotations = append(att.Annotations, annotations.Build(raw))
			}
			item.Attachments = append(item.Attachments, *att)
		}

		graph.Items = append(graph.Items, &item)
	}

	if err := c.targetCollection(path, opts, graph); err != nil {
		return nil, err
	}

	if err := c.items.SaveGraph(graph); err != nil {
		c.discardStaged(graph)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}

	result := &Result{CollectionID: graph.CollectionID, Warnings: warnings}
	var attachmentKeys []string
	for _, item := range graph.Items {
		result.ItemKeys = append(result.ItemKeys, item.Key)
		for _, att := range item.Attachments {
			if att.StoragePath != "" && att.LinkMode != entities.LinkModeLinkedFile {
				attachmentKeys = append(attachmentKeys, att.Key)
			}
		}
	}

	// One batched event per import, never one per item.
	c.bus.Publish(notify.ItemsAdded{Keys: result.ItemKeys})

	// Fire-and-forget: index availability is not a precondition for
	// import success.
	if c.indexer != nil && len(attachmentKeys) > 0 {
		c.indexer.Submit(attachmentKeys)
	}

	log.Info().
		Str("file", filepath.Base(path)).
		Str("format", string(format)).
		Int("items", len(result.ItemKeys)).
		Int("warnings", len(warnings)).
		Msg("import finished")

	return result, nil
}

// targetCollection decides where top-level items land: a fresh collection
// named after the source file (the default, created by SaveGraph inside
// the write transaction so a rollback takes it along), a caller-chosen
// existing one, or none.
func (c *Coordinator) targetCollection(path string, opts Options, graph *items.Graph) error {
	createNew := opts.CreateNewCollection == nil || *opts.CreateNewCollection
	if createNew {
		graph.NewCollection = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return nil
	}

	if opts.TargetCollectionID == 0 {
		return nil
	}

	collection, err := c.collections.GetByID(opts.TargetCollectionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("target collection %d does not exist", opts.TargetCollectionID)
		}
		return err
	}
	graph.CollectionID = collection.ID
	return nil
}

// discardStaged removes attachment files copied into storage for a graph
// whose transaction rolled back.
func (c *Coordinator) discardStaged(g *items.Graph) {
	for _, item := range g.Items {
		for i := range item.Attachments {
			c.resolver.Discard(&item.Attachments[i])
		}
	}
}
