// Package normalize maps format-specific intermediate records onto the
// canonical item schema using static type and field mapping tables.
//
// Records are trusted one-to-one: two records that look identical still
// become two items. No cross-record merge is performed.
package normalize

import (
	"strings"

	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
)

type formatTables struct {
	types  map[string]string
	fields map[string]string
}

var tables = map[formats.Format]formatTables{
	formats.FormatRIS:        {types: risTypeMap, fields: risFieldMap},
	formats.FormatRDF:        {types: rdfTypeMap, fields: rdfFieldMap},
	formats.FormatMODS:       {types: modsTypeMap, fields: modsFieldMap},
	formats.FormatZIPProject: {types: projectTypeMap, fields: projectFieldMap},
}

// Record maps one intermediate record to an Item. Unrecognized source
// types fall back to the generic document type; unmapped fields are
// dropped. Attachment references stay on the record for the resolver.
func Record(format formats.Format, rec *formats.Record) entities.Item {
	t, ok := tables[format]
	if !ok {
		t = formatTables{types: map[string]string{}, fields: map[string]string{}}
	}

	item := entities.Item{ItemType: itemType(t.types, rec.SourceType)}

	pos := 0
	seen := make(map[string]bool)
	for _, f := range rec.Fields {
		name, ok := t.fields[f.Name]
		if !ok || seen[name] {
			continue
		}
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}
		if name == "date" {
			value = CoerceDate(value)
		}
		item.Fields = append(item.Fields, entities.ItemField{
			Name:     name,
			Value:    value,
			Position: pos,
		})
		seen[name] = true
		pos++
	}

	item.Creators = SplitCreators(rec.Creators)

	for _, content := range rec.Notes {
		item.Notes = append(item.Notes, entities.Note{Content: content})
	}

	for _, name := range rec.Tags {
		if name = strings.TrimSpace(name); name != "" {
			item.Tags = append(item.Tags, entities.Tag{Name: name})
		}
	}

	return item
}

func itemType(types map[string]string, sourceType string) string {
	if mapped, ok := types[strings.TrimSpace(sourceType)]; ok {
		return mapped
	}
	if mapped, ok := types[strings.ToLower(strings.TrimSpace(sourceType))]; ok {
		return mapped
	}
	return entities.ItemTypeDocument
}
