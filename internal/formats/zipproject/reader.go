package zipproject

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Reference is one bibliographic record in the project store.
type Reference struct {
	ID     string
	Type   string
	Title  string
	Author string
	Year   string
}

// File is a companion file row (typically a PDF) owned by a reference.
type File struct {
	ID          string
	ReferenceID string
	Path        string
	MimeType    string
}

// Annotation is one markup row. The source stores text offsets and a char
// position per annotation; the sort encoding is derived from them later.
type Annotation struct {
	ID         string
	FileID     string
	PageIndex  int
	Text       string
	Comment    string
	TextOffset int
	CharPos    int
	Rects      [][4]float64
	Tags       []string
}

// ProjectReader reads the relational store embedded in a project bundle.
type ProjectReader struct {
	dbPath string
}

func NewProjectReader(dbPath string) *ProjectReader {
	return &ProjectReader{dbPath: dbPath}
}

// Read loads references, their files, and each file's annotations with
// rects (in stored segment order) and tags.
func (r *ProjectReader) Read() ([]Reference, map[string][]File, map[string][]Annotation, error) {
	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open project database: %w", err)
	}
	defer db.Close()

	refs, err := readReferences(db)
	if err != nil {
		return nil, nil, nil, err
	}

	files, err := readFiles(db)
	if err != nil {
		return nil, nil, nil, err
	}

	annotations, err := readAnnotations(db)
	if err != nil {
		return nil, nil, nil, err
	}

	return refs, files, annotations, nil
}

func readReferences(db *sql.DB) ([]Reference, error) {
	rows, err := db.Query(`SELECT id, type, title, author, year FROM reference ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var ref Reference
		var typ, author, year sql.NullString
		if err := rows.Scan(&ref.ID, &typ, &ref.Title, &author, &year); err != nil {
			return nil, fmt.Errorf("failed to scan reference row: %w", err)
		}
		ref.Type = typ.String
		ref.Author = author.String
		ref.Year = year.String
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// readFiles returns files keyed by owning reference ID.
func readFiles(db *sql.DB) (map[string][]File, error) {
	rows, err := db.Query(`SELECT id, reference_id, path, mime_type FROM file ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	files := make(map[string][]File)
	for rows.Next() {
		var f File
		var mime sql.NullString
		if err := rows.Scan(&f.ID, &f.ReferenceID, &f.Path, &mime); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		f.MimeType = mime.String
		files[f.ReferenceID] = append(files[f.ReferenceID], f)
	}
	return files, rows.Err()
}

// readAnnotations returns annotations keyed by owning file ID, each with
// its rects in stored segment order and its tags.
func readAnnotations(db *sql.DB) (map[string][]Annotation, error) {
	rows, err := db.Query(`
		SELECT id, file_id, page_index, text, comment, text_offset, char_position
		FROM annotation ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var all []*Annotation
	index := make(map[string]*Annotation)

	for rows.Next() {
		a := &Annotation{}
		var text, comment sql.NullString
		if err := rows.Scan(&a.ID, &a.FileID, &a.PageIndex, &text, &comment, &a.TextOffset, &a.CharPos); err != nil {
			return nil, fmt.Errorf("failed to scan annotation row: %w", err)
		}
		a.Text = text.String
		a.Comment = comment.String
		all = append(all, a)
		index[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachRects(db, index); err != nil {
		return nil, err
	}
	if err := attachTags(db, index); err != nil {
		return nil, err
	}

	byFile := make(map[string][]Annotation)
	for _, a := range all {
		byFile[a.FileID] = append(byFile[a.FileID], *a)
	}
	return byFile, nil
}

// attachRects loads highlight rectangles per annotation. Seq order is the
// source's per-segment emission order and is preserved as-is.
func attachRects(db *sql.DB, index map[string]*Annotation) error {
	rows, err := db.Query(`
		SELECT annotation_id, x1, y1, x2, y2
		FROM annotation_rect ORDER BY annotation_id, seq`)
	if err != nil {
		return fmt.Errorf("failed to query annotation rects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var x1, y1, x2, y2 float64
		if err := rows.Scan(&id, &x1, &y1, &x2, &y2); err != nil {
			return fmt.Errorf("failed to scan rect row: %w", err)
		}
		if a, ok := index[id]; ok {
			a.Rects = append(a.Rects, [4]float64{x1, y1, x2, y2})
		}
	}
	return rows.Err()
}

func attachTags(db *sql.DB, index map[string]*Annotation) error {
	rows, err := db.Query(`
		SELECT at.annotation_id, t.name
		FROM annotation_tag at
		JOIN tag t ON t.id = at.tag_id
		ORDER BY at.rowid`)
	if err != nil {
		return fmt.Errorf("failed to query annotation tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		if a, ok := index[id]; ok {
			a.Tags = append(a.Tags, name)
		}
	}
	return rows.Err()
}
