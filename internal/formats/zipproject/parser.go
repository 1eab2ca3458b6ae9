package zipproject

import (
	"context"
	"fmt"
	"os"

	"github.com/mrlokans/refbase/internal/formats"
)

// Parser reconstructs the item -> PDF attachment -> annotations graph from
// the bundle's internal foreign keys. Extraction is staged on disk, so the
// coordinator calls Cleanup after attachment resolution.
type Parser struct {
	tempDir string
}

func NewParser() *Parser {
	return &Parser{}
}

var (
	_ formats.Parser  = (*Parser)(nil)
	_ formats.Cleaner = (*Parser)(nil)
)

func (p *Parser) Format() formats.Format {
	return formats.FormatZIPProject
}

// Cleanup removes the extraction directory. Safe to call when Parse never
// ran or failed early.
func (p *Parser) Cleanup() {
	if p.tempDir != "" {
		os.RemoveAll(p.tempDir)
		p.tempDir = ""
	}
}

func (p *Parser) Parse(ctx context.Context, path string) (*formats.Tree, []formats.Warning, error) {
	dbPath, tempDir, err := Extract(path)
	if err != nil {
		return nil, nil, err
	}
	p.tempDir = tempDir

	refs, files, annotations, err := NewProjectReader(dbPath).Read()
	if err != nil {
		p.Cleanup()
		return nil, nil, err
	}

	tree := &formats.Tree{BaseDir: tempDir}
	var warnings []formats.Warning

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			p.Cleanup()
			return nil, nil, err
		}

		if ref.Title == "" {
			warnings = append(warnings, formats.ParseWarning(i, "zipproject",
				fmt.Errorf("reference %s has no title", ref.ID)))
			continue
		}

		rec := formats.Record{SourceType: ref.Type}
		rec.Fields = append(rec.Fields, formats.Field{Name: "title", Value: ref.Title})
		if ref.Year != "" {
			rec.Fields = append(rec.Fields, formats.Field{Name: "year", Value: ref.Year})
		}
		if ref.Author != "" {
			rec.Creators = append(rec.Creators, formats.Creator{Name: ref.Author, Role: "author"})
		}

		for _, f := range files[ref.ID] {
			attRef := formats.AttachmentRef{
				Path:     f.Path,
				MimeType: f.MimeType,
			}
			for _, a := range annotations[f.ID] {
				attRef.Annotations = append(attRef.Annotations, formats.RawAnnotation{
					Text:      a.Text,
					Comment:   a.Comment,
					PageIndex: a.PageIndex,
					Offset:    a.TextOffset,
					CharPos:   a.CharPos,
					Rects:     a.Rects,
					Tags:      a.Tags,
				})
			}
			rec.Attachments = append(rec.Attachments, attRef)
		}

		tree.Records = append(tree.Records, rec)
	}

	return tree, warnings, nil
}
