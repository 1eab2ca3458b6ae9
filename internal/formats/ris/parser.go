// Package ris parses the delimited-tag reference export format: one
// "TAG  - value" pair per line, records opened by TY and closed by ER.
package ris

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mrlokans/refbase/internal/formats"
)

// tagPattern matches one delimited-tag line: "TY  - BOOK".
var tagPattern = regexp.MustCompile(`^([A-Z][A-Z0-9])  - ?(.*)$`)

const (
	tagType    = "TY"
	tagEnd     = "ER"
	tagNote    = "N1"
	tagKeyword = "KW"
	tagFile    = "L1"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

var _ formats.Parser = (*Parser)(nil)

func (p *Parser) Format() formats.Format {
	return formats.FormatRIS
}

func (p *Parser) Parse(ctx context.Context, path string) (*formats.Tree, []formats.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open RIS file: %w", err)
	}
	defer f.Close()

	tree, warnings, err := p.parse(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	tree.BaseDir = filepath.Dir(path)
	return tree, warnings, nil
}

func (p *Parser) parse(ctx context.Context, r io.Reader) (*formats.Tree, []formats.Warning, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &formats.Tree{}
	var warnings []formats.Warning

	var current *formats.Record
	var lastField *formats.Field
	recordIndex := -1

	flush := func() {
		if current == nil {
			return
		}
		if len(current.Fields) == 0 && len(current.Notes) == 0 && current.SourceType == "" {
			warnings = append(warnings, formats.ParseWarning(recordIndex, "ris", fmt.Errorf("empty record")))
		} else {
			tree.Records = append(tree.Records, *current)
		}
		current = nil
		lastField = nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		line := strings.TrimRight(scanner.Text(), "\r")

		// A blank line is a record boundary.
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		m := tagPattern.FindStringSubmatch(line)
		if m == nil {
			// Continuation of the previous value, or stray text outside
			// any record. The latter is ignored, not fatal.
			if lastField != nil {
				lastField.Value += " " + strings.TrimSpace(line)
			}
			continue
		}

		tag, value := m[1], strings.TrimSpace(m[2])

		switch tag {
		case tagType:
			// An unterminated previous record still imports.
			flush()
			recordIndex++
			current = &formats.Record{SourceType: value}
		case tagEnd:
			flush()
		default:
			if current == nil {
				// Tag before any TY: record-scoped parse failure, keep going.
				warnings = append(warnings, formats.ParseWarning(recordIndex+1, "ris",
					fmt.Errorf("tag %s before record start", tag)))
				continue
			}
			lastField = nil
			switch tag {
			case tagNote:
				// Child-note convention: the note belongs to the record
				// being parsed.
				current.Notes = append(current.Notes, noteContent(value))
			case tagKeyword:
				current.Tags = append(current.Tags, value)
			case tagFile:
				current.Attachments = append(current.Attachments, formats.AttachmentRef{Path: value})
			case "AU", "A1", "A2", "A3", "ED":
				current.Creators = append(current.Creators, formats.Creator{Name: value, Role: creatorRole(tag)})
			default:
				// Unknown tags land in Fields; the normalizer decides what
				// maps to a canonical field and what gets dropped.
				current.Fields = append(current.Fields, formats.Field{Name: tag, Value: value})
				lastField = &current.Fields[len(current.Fields)-1]
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading RIS data: %w", err)
	}

	flush()

	return tree, warnings, nil
}

func creatorRole(tag string) string {
	switch tag {
	case "A2", "ED":
		return "editor"
	case "A3":
		return "seriesEditor"
	default:
		return "author"
	}
}

// noteContent wraps bare note text in a paragraph, matching how exported
// notes round-trip. Already-marked-up notes pass through untouched.
func noteContent(value string) string {
	if strings.HasPrefix(strings.TrimSpace(value), "<") {
		return value
	}
	return "<p>" + value + "</p>"
}
