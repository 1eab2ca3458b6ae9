// Package mods parses the bibliographic-XML description format: one
// <mods> record per item, fields extracted by fixed rules. Records with
// missing fields still import with those fields empty.
package mods

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/refbase/internal/formats"
)

type modsCollection struct {
	XMLName xml.Name     `xml:"modsCollection"`
	Records []modsRecord `xml:"mods"`
}

type modsRecord struct {
	TitleInfo      []titleInfo   `xml:"titleInfo"`
	Names          []name        `xml:"name"`
	TypeOfResource string        `xml:"typeOfResource"`
	Genres         []genre       `xml:"genre"`
	OriginInfo     originInfo    `xml:"originInfo"`
	RelatedItems   []relatedItem `xml:"relatedItem"`
	Identifiers    []identifier  `xml:"identifier"`
	Abstract       string        `xml:"abstract"`
	Subjects       []subject     `xml:"subject"`
	Location       location      `xml:"location"`
	Part           part          `xml:"part"`
}

type titleInfo struct {
	Type     string `xml:"type,attr"`
	Title    string `xml:"title"`
	SubTitle string `xml:"subTitle"`
}

type name struct {
	Type      string     `xml:"type,attr"`
	NameParts []namePart `xml:"namePart"`
	Role      struct {
		RoleTerm string `xml:"roleTerm"`
	} `xml:"role"`
}

type namePart struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type genre struct {
	Authority string `xml:"authority,attr"`
	Value     string `xml:",chardata"`
}

type originInfo struct {
	DateIssued string `xml:"dateIssued"`
	Publisher  string `xml:"publisher"`
	Place      struct {
		PlaceTerm string `xml:"placeTerm"`
	} `xml:"place"`
	Edition string `xml:"edition"`
}

type relatedItem struct {
	Type      string      `xml:"type,attr"`
	TitleInfo []titleInfo `xml:"titleInfo"`
	Part      part        `xml:"part"`
}

type part struct {
	Details []struct {
		Type   string `xml:"type,attr"`
		Number string `xml:"number"`
	} `xml:"detail"`
	Extent struct {
		Unit  string `xml:"unit,attr"`
		Start string `xml:"start"`
		End   string `xml:"end"`
	} `xml:"extent"`
}

type identifier struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type subject struct {
	Topics []string `xml:"topic"`
}

type location struct {
	URL string `xml:"url"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

var _ formats.Parser = (*Parser)(nil)

func (p *Parser) Format() formats.Format {
	return formats.FormatMODS
}

func (p *Parser) Parse(ctx context.Context, path string) (*formats.Tree, []formats.Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read MODS file: %w", err)
	}

	var collection modsCollection
	if err := xml.Unmarshal(raw, &collection); err != nil {
		// A single bare <mods> root is also accepted.
		var single modsRecord
		if inner := xml.Unmarshal(raw, &single); inner != nil {
			return nil, nil, fmt.Errorf("failed to parse MODS XML: %w", err)
		}
		collection.Records = []modsRecord{single}
	}

	tree := &formats.Tree{BaseDir: filepath.Dir(path)}
	var warnings []formats.Warning

	for i := range collection.Records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rec := recordFromMods(&collection.Records[i])
		tree.Records = append(tree.Records, *rec)
	}

	return tree, warnings, nil
}

func recordFromMods(m *modsRecord) *formats.Record {
	rec := &formats.Record{SourceType: sourceType(m)}

	addField := func(name, value string) {
		if value != "" {
			rec.Fields = append(rec.Fields, formats.Field{Name: name, Value: value})
		}
	}

	addField("title", primaryTitle(m.TitleInfo))
	addField("dateIssued", strings.TrimSpace(m.OriginInfo.DateIssued))
	addField("publisher", strings.TrimSpace(m.OriginInfo.Publisher))
	addField("place", strings.TrimSpace(m.OriginInfo.Place.PlaceTerm))
	addField("edition", strings.TrimSpace(m.OriginInfo.Edition))
	addField("abstract", strings.TrimSpace(m.Abstract))
	addField("url", strings.TrimSpace(m.Location.URL))

	for _, id := range m.Identifiers {
		switch strings.ToLower(id.Type) {
		case "isbn":
			addField("isbn", strings.TrimSpace(id.Value))
		case "issn":
			addField("issn", strings.TrimSpace(id.Value))
		case "doi":
			addField("doi", strings.TrimSpace(id.Value))
		}
	}

	for _, rel := range m.RelatedItems {
		if rel.Type != "host" {
			continue
		}
		addField("hostTitle", primaryTitle(rel.TitleInfo))
		addPart(rec, &rel.Part)
	}
	addPart(rec, &m.Part)

	for _, n := range m.Names {
		var family, given, literal string
		for _, part := range n.NameParts {
			switch part.Type {
			case "family":
				family = strings.TrimSpace(part.Value)
			case "given":
				given = strings.TrimSpace(part.Value)
			default:
				literal = strings.TrimSpace(part.Value)
			}
		}
		fullName := literal
		if family != "" {
			fullName = family
			if given != "" {
				fullName = family + ", " + given
			}
		}
		if fullName == "" {
			continue
		}
		role := strings.TrimSpace(n.Role.RoleTerm)
		if role == "" {
			role = "author"
		}
		rec.Creators = append(rec.Creators, formats.Creator{Name: fullName, Role: role})
	}

	for _, s := range m.Subjects {
		for _, topic := range s.Topics {
			if t := strings.TrimSpace(topic); t != "" {
				rec.Tags = append(rec.Tags, t)
			}
		}
	}

	return rec
}

func addPart(rec *formats.Record, pt *part) {
	for _, d := range pt.Details {
		switch d.Type {
		case "volume":
			if d.Number != "" {
				rec.Fields = append(rec.Fields, formats.Field{Name: "volume", Value: d.Number})
			}
		case "issue":
			if d.Number != "" {
				rec.Fields = append(rec.Fields, formats.Field{Name: "issue", Value: d.Number})
			}
		}
	}
	if pt.Extent.Unit == "pages" && pt.Extent.Start != "" {
		pages := pt.Extent.Start
		if pt.Extent.End != "" {
			pages += "-" + pt.Extent.End
		}
		rec.Fields = append(rec.Fields, formats.Field{Name: "pages", Value: pages})
	}
}

// sourceType picks the format-native type name: genre when present, a host
// relation marker for journal material, typeOfResource as a last resort.
func sourceType(m *modsRecord) string {
	for _, g := range m.Genres {
		if v := strings.TrimSpace(g.Value); v != "" {
			return v
		}
	}
	for _, rel := range m.RelatedItems {
		if rel.Type == "host" {
			return "academic journal"
		}
	}
	return strings.TrimSpace(m.TypeOfResource)
}

func primaryTitle(infos []titleInfo) string {
	for _, ti := range infos {
		if ti.Type != "" {
			continue
		}
		title := strings.TrimSpace(ti.Title)
		if sub := strings.TrimSpace(ti.SubTitle); sub != "" {
			title += ": " + sub
		}
		if title != "" {
			return title
		}
	}
	if len(infos) > 0 {
		return strings.TrimSpace(infos[0].Title)
	}
	return ""
}
