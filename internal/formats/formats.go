// Package formats defines the parser boundary of the import pipeline:
// the Format enum, the Parser interface every format family implements,
// the intermediate tree parsers produce, and record-scoped warnings.
package formats

import (
	"context"
	"errors"
	"fmt"
)

// Format identifies a supported import format family.
type Format string

const (
	FormatRIS        Format = "ris"
	FormatRDF        Format = "rdf"
	FormatMODS       Format = "mods"
	FormatZIPProject Format = "zipproject"
)

// ErrUnrecognizedFormat is returned by detection when no parser matches.
// It is fatal: no transaction is opened for the import.
var ErrUnrecognizedFormat = errors.New("unrecognized import format")

// Parser converts a source file into an intermediate tree. Implementations
// open the file themselves so detection sniffing never leaves a parser with
// a partially consumed reader. Record-level failures are collected as
// warnings; a non-nil error means the file as a whole could not be parsed.
type Parser interface {
	Format() Format
	Parse(ctx context.Context, path string) (*Tree, []Warning, error)
}

// Tree is the format-independent intermediate representation. Records keep
// source order; everything downstream (sort indexes, rect order, batched
// notifications) depends on that order surviving.
type Tree struct {
	// BaseDir is the directory attachment references are resolved against:
	// the source file's directory, or the extraction directory for
	// archive-packaged formats.
	BaseDir string

	Records []Record
}

// Cleaner is implemented by parsers that stage files on disk (archive
// extraction). The coordinator calls Cleanup once attachment resolution is
// done with the staged files.
type Cleaner interface {
	Cleanup()
}

// Record is one source record: an item-to-be plus everything that hangs
// off it. SourceType carries the format-native type name for the
// normalizer's mapping tables.
type Record struct {
	SourceType  string
	Fields      []Field
	Creators    []Creator
	Notes       []string
	Attachments []AttachmentRef
	Tags        []string
}

// Field is one source field. Name is format-native; the normalizer maps it
// to a canonical field name.
type Field struct {
	Name  string
	Value string
}

// Creator is a raw creator name with its source role.
type Creator struct {
	Name string // "Last, First" or a single literal name
	Role string // author, editor, ... (format-native)
}

// AttachmentRef points at a companion file or URL emitted by a parser.
// Path is relative to the source container (directory or extracted
// archive); the resolver binds it to a physical file.
type AttachmentRef struct {
	Title       string
	Path        string
	URL         string
	MimeType    string
	Charset     string
	Link        bool // reference the file in place instead of importing it
	Annotations []RawAnnotation
}

// RawAnnotation is page markup as emitted by a parser, before the
// annotation extractor derives the sort index. Rects are in PDF user space
// and keep the source's per-segment order.
type RawAnnotation struct {
	Text      string
	Comment   string
	PageIndex int
	Offset    int // primary positional offset within the page text
	CharPos   int // character position of the selection start
	Rects     [][4]float64
	Tags      []string
}

// WarningKind classifies record-scoped import problems.
type WarningKind string

const (
	WarningParse             WarningKind = "parse_error"
	WarningMissingAttachment WarningKind = "missing_attachment_file"
)

// Warning is a non-fatal, record-scoped problem. Warnings are collected
// and returned alongside the import result; they never abort the batch.
type Warning struct {
	Kind    WarningKind
	Record  int // index of the affected record, -1 when not record-bound
	Message string
}

func (w Warning) String() string {
	if w.Record >= 0 {
		return fmt.Sprintf("%s (record %d): %s", w.Kind, w.Record, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// ParseWarning builds a record-scoped parse warning.
func ParseWarning(record int, format string, err error) Warning {
	return Warning{
		Kind:    WarningParse,
		Record:  record,
		Message: fmt.Sprintf("%s: %v", format, err),
	}
}
