package zipproject

import (
	"archive/zip"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

const fixtureSchema = `
CREATE TABLE reference (id TEXT PRIMARY KEY, type TEXT, title TEXT, author TEXT, year TEXT);
CREATE TABLE file (id TEXT PRIMARY KEY, reference_id TEXT, path TEXT, mime_type TEXT);
CREATE TABLE annotation (
	id TEXT PRIMARY KEY, file_id TEXT, page_index INTEGER,
	text TEXT, comment TEXT, text_offset INTEGER, char_position INTEGER
);
CREATE TABLE annotation_rect (annotation_id TEXT, seq INTEGER, x1 REAL, y1 REAL, x2 REAL, y2 REAL);
CREATE TABLE tag (id TEXT PRIMARY KEY, name TEXT);
CREATE TABLE annotation_tag (annotation_id TEXT, tag_id TEXT);
`

// buildBundle creates a project bundle with one reference, one PDF file,
// and two annotations: a two-line highlight tagged red and blue, and a
// comment-only annotation.
func buildBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "project.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		fixtureSchema,
		`INSERT INTO reference VALUES ('r1', 'book', 'Annotated Book', 'Smith, John', '2016')`,
		`INSERT INTO file VALUES ('f1', 'r1', 'files/document.pdf', 'application/pdf')`,
		`INSERT INTO annotation VALUES ('a1', 'f1', 0, 'highlighted text', '', 103, 206)`,
		`INSERT INTO annotation VALUES ('a2', 'f1', 2, '', 'a comment', 45, 12)`,
		`INSERT INTO annotation_rect VALUES ('a1', 0, 10, 700, 200, 712)`,
		`INSERT INTO annotation_rect VALUES ('a1', 1, 10, 685, 150, 697)`,
		`INSERT INTO annotation_rect VALUES ('a1', 2, 10, 685, 200, 712)`,
		`INSERT INTO annotation_rect VALUES ('a2', 0, 50, 400, 60, 410)`,
		`INSERT INTO tag VALUES ('t1', 'red')`,
		`INSERT INTO tag VALUES ('t2', 'blue')`,
		`INSERT INTO tag VALUES ('t3', 'comment')`,
		`INSERT INTO annotation_tag VALUES ('a1', 't1')`,
		`INSERT INTO annotation_tag VALUES ('a1', 't2')`,
		`INSERT INTO annotation_tag VALUES ('a2', 't3')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to execute fixture statement: %v", err)
		}
	}
	db.Close()

	bundlePath := filepath.Join(dir, "project.ctv6")
	out, err := os.Create(bundlePath)
	if err != nil {
		t.Fatalf("failed to create bundle: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	addZipEntry(t, zw, "project.db", dbPath)
	pdfPath := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("failed to write fixture pdf: %v", err)
	}
	addZipEntry(t, zw, "files/document.pdf", pdfPath)
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish bundle: %v", err)
	}

	return bundlePath
}

func addZipEntry(t *testing.T, zw *zip.Writer, name, srcPath string) {
	t.Helper()
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", srcPath, err)
	}
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("failed to create zip entry %s: %v", name, err)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("failed to write zip entry %s: %v", name, err)
	}
}

func TestParser_Parse_Bundle(t *testing.T) {
	bundle := buildBundle(t)
	parser := NewParser()
	defer parser.Cleanup()

	tree, warnings, err := parser.Parse(context.Background(), bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(tree.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(tree.Records))
	}

	rec := tree.Records[0]
	if rec.SourceType != "book" {
		t.Errorf("expected source type book, got %q", rec.SourceType)
	}
	if len(rec.Fields) != 2 || rec.Fields[0].Value != "Annotated Book" || rec.Fields[1].Value != "2016" {
		t.Errorf("unexpected fields: %+v", rec.Fields)
	}
	if len(rec.Creators) != 1 || rec.Creators[0].Name != "Smith, John" {
		t.Errorf("unexpected creators: %+v", rec.Creators)
	}

	if len(rec.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(rec.Attachments))
	}
	att := rec.Attachments[0]
	if att.Path != "files/document.pdf" || att.MimeType != "application/pdf" {
		t.Errorf("unexpected attachment: %+v", att)
	}

	// The referenced PDF must exist under the extraction base dir.
	if _, err := os.Stat(filepath.Join(tree.BaseDir, att.Path)); err != nil {
		t.Errorf("referenced file not extracted: %v", err)
	}
}

func TestParser_Parse_Annotations(t *testing.T) {
	bundle := buildBundle(t)
	parser := NewParser()
	defer parser.Cleanup()

	tree, _, err := parser.Parse(context.Background(), bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	anns := tree.Records[0].Attachments[0].Annotations
	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}

	highlight := anns[0]
	if highlight.Text != "highlighted text" || highlight.PageIndex != 0 {
		t.Errorf("unexpected highlight: %+v", highlight)
	}
	if highlight.Offset != 103 || highlight.CharPos != 206 {
		t.Errorf("unexpected positions: offset=%d charPos=%d", highlight.Offset, highlight.CharPos)
	}
	// Per-line rects first, trailing bounding rect last, never permuted.
	if len(highlight.Rects) != 3 {
		t.Fatalf("expected 3 rects, got %d", len(highlight.Rects))
	}
	if highlight.Rects[0] != [4]float64{10, 700, 200, 712} {
		t.Errorf("unexpected first rect: %v", highlight.Rects[0])
	}
	if highlight.Rects[2] != [4]float64{10, 685, 200, 712} {
		t.Errorf("unexpected bounding rect: %v", highlight.Rects[2])
	}
	if len(highlight.Tags) != 2 || highlight.Tags[0] != "red" || highlight.Tags[1] != "blue" {
		t.Errorf("unexpected tags: %v", highlight.Tags)
	}

	comment := anns[1]
	if comment.Text != "" || comment.Comment != "a comment" || comment.PageIndex != 2 {
		t.Errorf("unexpected comment annotation: %+v", comment)
	}
	if len(comment.Tags) != 1 || comment.Tags[0] != "comment" {
		t.Errorf("unexpected comment tags: %v", comment.Tags)
	}
}

func TestParser_Parse_UntitledReferenceWarns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "project.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	if _, err := db.Exec(fixtureSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO reference VALUES ('r1', 'book', '', '', '')`); err != nil {
		t.Fatalf("failed to insert reference: %v", err)
	}
	db.Close()

	bundlePath := filepath.Join(dir, "empty.ctv6")
	out, err := os.Create(bundlePath)
	if err != nil {
		t.Fatalf("failed to create bundle: %v", err)
	}
	zw := zip.NewWriter(out)
	addZipEntry(t, zw, "project.db", dbPath)
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish bundle: %v", err)
	}
	out.Close()

	parser := NewParser()
	defer parser.Cleanup()
	tree, warnings, err := parser.Parse(context.Background(), bundlePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Records) != 0 {
		t.Errorf("expected no records, got %d", len(tree.Records))
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}

func TestParser_Cleanup_RemovesExtraction(t *testing.T) {
	bundle := buildBundle(t)
	parser := NewParser()

	tree, _, err := parser.Parse(context.Background(), bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := tree.BaseDir
	if _, err := os.Stat(base); err != nil {
		t.Fatalf("extraction dir missing before cleanup: %v", err)
	}

	parser.Cleanup()
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Errorf("extraction dir still present after cleanup")
	}
}
