package entities

import (
	"time"
)

type LinkMode string

const (
	LinkModeImportedFile LinkMode = "imported_file"
	LinkModeImportedURL  LinkMode = "imported_url"
	LinkModeLinkedFile   LinkMode = "linked_file"
)

// ItemType values follow the canonical schema. Unrecognized source types
// are mapped to ItemTypeDocument by the normalizer.
const (
	ItemTypeBook           = "book"
	ItemTypeBookSection    = "bookSection"
	ItemTypeJournalArticle = "journalArticle"
	ItemTypeConferencePaper = "conferencePaper"
	ItemTypeThesis         = "thesis"
	ItemTypeReport         = "report"
	ItemTypeWebpage        = "webpage"
	ItemTypeDocument       = "document"
)

// TagComment is the reserved tag name marking a comment-only annotation.
const TagComment = "comment"

type Library struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	IsUser    bool      `gorm:"index" json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

type Collection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:8" json:"key"`
	LibraryID uint      `gorm:"index" json:"library_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Name      string    `gorm:"index;size:255" json:"name"`
	Items     []Item    `gorm:"many2many:collection_items;" json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Item struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Key       string `gorm:"uniqueIndex;size:8" json:"key"`
	LibraryID uint   `gorm:"index" json:"library_id"`
	ItemType  string `gorm:"index;size:50" json:"item_type"`

	Fields      []ItemField  `gorm:"foreignKey:ItemID" json:"fields,omitempty"`
	Creators    []Creator    `gorm:"foreignKey:ItemID" json:"creators,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:ItemID" json:"attachments,omitempty"`
	Notes       []Note       `gorm:"foreignKey:ItemID" json:"notes,omitempty"`
	Collections []Collection `gorm:"many2many:collection_items;" json:"-"`
	Tags        []Tag        `gorm:"many2many:item_tags;" json:"tags,omitempty"`

	DateAdded    time.Time `json:"date_added"`
	DateModified time.Time `json:"date_modified"`
}

// ItemField is one entry of an item's ordered field map. Position preserves
// the order fields appeared in the source record.
type ItemField struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	ItemID   uint   `gorm:"index" json:"-"`
	Name     string `gorm:"index;size:100" json:"name"`
	Value    string `gorm:"type:text" json:"value"`
	Position int    `json:"position"`
}

type Creator struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	ItemID      uint   `gorm:"index" json:"-"`
	CreatorType string `gorm:"size:50" json:"creator_type"` // author, editor, translator, ...
	LastName    string `gorm:"size:255" json:"last_name"`
	FirstName   string `gorm:"size:255" json:"first_name"`
	Position    int    `json:"position"`
}

type Attachment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Key       string `gorm:"uniqueIndex;size:8" json:"key"`
	LibraryID uint   `gorm:"index" json:"library_id"`
	ItemID    *uint  `gorm:"index" json:"item_id,omitempty"` // nil for standalone attachments

	Title    string   `gorm:"size:512" json:"title"`
	LinkMode LinkMode `gorm:"size:20;default:'imported_file'" json:"link_mode"`
	MimeType string   `gorm:"size:100" json:"mime_type"`
	Charset  string   `gorm:"size:50" json:"charset,omitempty"`
	URL      string   `gorm:"size:2048" json:"url,omitempty"`

	// StoragePath is relative to the per-item storage root (<key>/<filename>).
	StoragePath string `gorm:"size:1024" json:"storage_path,omitempty"`

	Indexed bool `gorm:"default:false;index" json:"indexed"`

	Annotations []Annotation `gorm:"foreignKey:AttachmentID" json:"annotations,omitempty"`

	DateAdded    time.Time `json:"date_added"`
	DateModified time.Time `json:"date_modified"`
}

type Note struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Key       string `gorm:"uniqueIndex;size:8" json:"key"`
	LibraryID uint   `gorm:"index" json:"library_id"`
	ItemID    *uint  `gorm:"index" json:"item_id,omitempty"` // nil for standalone notes

	Content string `gorm:"type:text" json:"content"`

	DateAdded    time.Time `json:"date_added"`
	DateModified time.Time `json:"date_modified"`
}

type Annotation struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Key          string `gorm:"uniqueIndex;size:8" json:"key"`
	AttachmentID uint   `gorm:"index" json:"attachment_id"`

	// Text is the quoted/selected text; empty for pure comments.
	Text    string `gorm:"type:text" json:"text"`
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	PageIndex int `json:"page_index"`

	// SortIndex is a fixed-width "page|offset|charpos" string. Lexicographic
	// comparison reproduces reading order within one attachment.
	SortIndex string `gorm:"index;size:20" json:"sort_index"`

	Rects []AnnotationRect `gorm:"foreignKey:AnnotationID" json:"rects,omitempty"`
	Tags  []Tag            `gorm:"many2many:annotation_tags;" json:"tags,omitempty"`

	DateAdded time.Time `json:"date_added"`
}

// AnnotationRect is one highlight rectangle in PDF user space (origin
// bottom-left). Seq preserves source emission order; rects are never
// reordered geometrically.
type AnnotationRect struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	AnnotationID uint    `gorm:"index" json:"-"`
	Seq          int     `json:"seq"`
	X1           float64 `json:"x1"`
	Y1           float64 `json:"y1"`
	X2           float64 `json:"x2"`
	Y2           float64 `json:"y2"`
}

type Tag struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	LibraryID   uint         `gorm:"index" json:"library_id"`
	Name        string       `gorm:"index;size:255" json:"name"`
	Items       []Item       `gorm:"many2many:item_tags;" json:"-"`
	Annotations []Annotation `gorm:"many2many:annotation_tags;" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (Library) TableName() string        { return "libraries" }
func (Collection) TableName() string     { return "collections" }
func (Item) TableName() string           { return "items" }
func (ItemField) TableName() string      { return "item_fields" }
func (Creator) TableName() string        { return "creators" }
func (Attachment) TableName() string     { return "attachments" }
func (Note) TableName() string           { return "notes" }
func (Annotation) TableName() string     { return "annotations" }
func (AnnotationRect) TableName() string { return "annotation_rects" }
func (Tag) TableName() string            { return "tags" }

// Field returns the value of the named field, or "" when absent.
func (i *Item) Field(name string) string {
	for _, f := range i.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// FieldMap returns the item's fields as a plain map, dropping order. Used
// by fixture comparisons and JSON views.
func (i *Item) FieldMap() map[string]string {
	m := make(map[string]string, len(i.Fields))
	for _, f := range i.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// Position is the structured page location of an annotation.
type Position struct {
	PageIndex int          `json:"pageIndex"`
	Rects     [][4]float64 `json:"rects"`
}

// Position returns the annotation's page index and rects in source order.
func (a *Annotation) Position() Position {
	pos := Position{PageIndex: a.PageIndex, Rects: make([][4]float64, 0, len(a.Rects))}
	for _, r := range a.Rects {
		pos.Rects = append(pos.Rects, [4]float64{r.X1, r.Y1, r.X2, r.Y2})
	}
	return pos
}
