package normalize

import (
	"testing"

	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
)

func TestRecord_TypeMapping(t *testing.T) {
	cases := []struct {
		format     formats.Format
		sourceType string
		want       string
	}{
		{formats.FormatRIS, "BOOK", entities.ItemTypeBook},
		{formats.FormatRIS, "JOUR", entities.ItemTypeJournalArticle},
		{formats.FormatRIS, "THES", entities.ItemTypeThesis},
		{formats.FormatRIS, "XXXX", entities.ItemTypeDocument},
		{formats.FormatRDF, "bib:Book", entities.ItemTypeBook},
		{formats.FormatRDF, "bib:Article", entities.ItemTypeJournalArticle},
		{formats.FormatMODS, "academic journal", entities.ItemTypeJournalArticle},
		{formats.FormatMODS, "book", entities.ItemTypeBook},
		{formats.FormatZIPProject, "journal_article", entities.ItemTypeJournalArticle},
		{formats.FormatZIPProject, "", entities.ItemTypeDocument},
	}

	for _, tc := range cases {
		item := Record(tc.format, &formats.Record{SourceType: tc.sourceType})
		if item.ItemType != tc.want {
			t.Errorf("%s %q: expected %s, got %s", tc.format, tc.sourceType, tc.want, item.ItemType)
		}
	}
}

func TestRecord_FieldMappingOrderAndDedup(t *testing.T) {
	rec := &formats.Record{
		SourceType: "BOOK",
		Fields: []formats.Field{
			{Name: "TI", Value: "Primary Title"},
			{Name: "T1", Value: "Duplicate Title"},
			{Name: "PY", Value: "2016"},
			{Name: "ZZ", Value: "unmapped"},
			{Name: "PB", Value: "  Test Press  "},
		},
	}

	item := Record(formats.FormatRIS, rec)
	if len(item.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(item.Fields), item.Fields)
	}
	// First occurrence wins; positions follow emission order.
	if item.Fields[0].Name != "title" || item.Fields[0].Value != "Primary Title" || item.Fields[0].Position != 0 {
		t.Errorf("unexpected first field: %+v", item.Fields[0])
	}
	if item.Fields[1].Name != "date" || item.Fields[1].Position != 1 {
		t.Errorf("unexpected second field: %+v", item.Fields[1])
	}
	if item.Fields[2].Name != "publisher" || item.Fields[2].Value != "Test Press" {
		t.Errorf("expected trimmed publisher, got %+v", item.Fields[2])
	}
}

func TestRecord_NotesAndTags(t *testing.T) {
	rec := &formats.Record{
		SourceType: "BOOK",
		Notes:      []string{"<p>Child</p>"},
		Tags:       []string{"one", "  ", "two"},
	}

	item := Record(formats.FormatRIS, rec)
	if len(item.Notes) != 1 || item.Notes[0].Content != "<p>Child</p>" {
		t.Errorf("unexpected notes: %+v", item.Notes)
	}
	if len(item.Tags) != 2 || item.Tags[0].Name != "one" || item.Tags[1].Name != "two" {
		t.Errorf("unexpected tags: %+v", item.Tags)
	}
}

func TestCoerceDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2016", "2016"},
		{"2016-07", "2016-07"},
		{"2016/7", "2016-07"},
		{"2016-07-02", "2016-07-02"},
		{"2016/7/2", "2016-07-02"},
		{"2016/07/02/summer", "2016-07-02"},
		{"2016//", "2016"},
		{"2016/07/", "2016-07"},
		{"July 2, 2016", "2016-07-02"},
		{"2 July 2016", "2016-07-02"},
		{"July 2016", "2016-07"},
		{"circa 1900", "circa 1900"},
		{"  2016  ", "2016"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := CoerceDate(tc.in); got != tc.want {
			t.Errorf("CoerceDate(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestSplitCreators(t *testing.T) {
	raw := []formats.Creator{
		{Name: "Smith, John", Role: "author"},
		{Name: "Mary Anne Jones", Role: "editor"},
		{Name: "Aristotle", Role: "author"},
		{Name: "   ", Role: "author"},
		{Name: "Brown, Alice", Role: "unknown-role"},
	}

	creators := SplitCreators(raw)
	if len(creators) != 4 {
		t.Fatalf("expected 4 creators, got %d", len(creators))
	}

	if creators[0].LastName != "Smith" || creators[0].FirstName != "John" {
		t.Errorf("unexpected comma split: %+v", creators[0])
	}
	if creators[1].LastName != "Jones" || creators[1].FirstName != "Mary Anne" || creators[1].CreatorType != "editor" {
		t.Errorf("unexpected space split: %+v", creators[1])
	}
	if creators[2].LastName != "Aristotle" || creators[2].FirstName != "" {
		t.Errorf("unexpected single-token name: %+v", creators[2])
	}
	if creators[3].CreatorType != "author" {
		t.Errorf("expected unknown role to default to author, got %q", creators[3].CreatorType)
	}

	for i, c := range creators {
		if c.Position != i {
			t.Errorf("creator %d: expected position %d, got %d", i, i, c.Position)
		}
	}
}
