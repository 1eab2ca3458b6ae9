// Package rdf parses the RDF/XML bibliography bundle format: a graph of
// typed resources linked by rdf:about / rdf:resource, with attachment
// references pointing into a sibling files/<N>/ directory.
package rdf

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/refbase/internal/formats"
)

// Namespace URIs seen in exports. Field names are emitted as
// "<prefix>:<local>" so the normalizer's mapping table stays readable.
var nsPrefixes = map[string]string{
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://purl.org/dc/terms/":                   "dcterms",
	"http://purl.org/net/biblio#":                 "bib",
	"http://www.zotero.org/namespaces/export#":    "z",
	"http://xmlns.com/foaf/0.1/":                  "foaf",
	"http://purl.org/rss/1.0/modules/link/":       "link",
	"http://prismstandard.org/namespaces/1.2/basic/": "prism",
}

type node struct {
	XMLName  xml.Name
	About    string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# about,attr"`
	Resource string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# resource,attr"`
	Content  string `xml:",chardata"`
	Children []node `xml:",any"`
}

func (n *node) name() string {
	prefix, ok := nsPrefixes[n.XMLName.Space]
	if !ok {
		return n.XMLName.Local
	}
	return prefix + ":" + n.XMLName.Local
}

func (n *node) text() string {
	return strings.TrimSpace(n.Content)
}

// child returns the first direct child with the given prefixed name.
func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].name() == name {
			return &n.Children[i]
		}
	}
	return nil
}

type document struct {
	XMLName   xml.Name
	Resources []node `xml:",any"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

var _ formats.Parser = (*Parser)(nil)

func (p *Parser) Format() formats.Format {
	return formats.FormatRDF
}

func (p *Parser) Parse(ctx context.Context, path string) (*formats.Tree, []formats.Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read RDF file: %w", err)
	}

	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse RDF/XML: %w", err)
	}

	// First pass: collect attachment resources by their rdf:about id so
	// link:link references from items can be resolved.
	attachments := make(map[string]formats.AttachmentRef)
	for i := range doc.Resources {
		res := &doc.Resources[i]
		if res.name() != "z:Attachment" {
			continue
		}
		attachments[res.About] = attachmentFromResource(res)
	}

	tree := &formats.Tree{BaseDir: filepath.Dir(path)}
	var warnings []formats.Warning

	recordIndex := -1
	for i := range doc.Resources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		res := &doc.Resources[i]
		name := res.name()
		if name == "z:Attachment" || name == "rdf:Description" {
			// Standalone descriptions carry no item type; skip quietly.
			continue
		}

		recordIndex++
		rec, err := p.recordFromResource(res, attachments)
		if err != nil {
			warnings = append(warnings, formats.ParseWarning(recordIndex, "rdf", err))
			continue
		}
		tree.Records = append(tree.Records, *rec)
	}

	return tree, warnings, nil
}

func (p *Parser) recordFromResource(res *node, attachments map[string]formats.AttachmentRef) (*formats.Record, error) {
	rec := &formats.Record{SourceType: res.name()}

	for i := range res.Children {
		c := &res.Children[i]
		switch c.name() {
		case "bib:authors", "bib:editors", "z:seriesEditors", "bib:contributors":
			rec.Creators = append(rec.Creators, creatorsFromSeq(c)...)
		case "link:link":
			ref, ok := attachments[c.Resource]
			if !ok {
				return nil, fmt.Errorf("dangling attachment reference %q", c.Resource)
			}
			rec.Attachments = append(rec.Attachments, ref)
		case "dc:subject":
			rec.Tags = append(rec.Tags, c.text())
		case "dcterms:isReferencedBy", "rdf:type":
			// Structural links, not fields.
		default:
			if v := c.text(); v != "" {
				rec.Fields = append(rec.Fields, formats.Field{Name: c.name(), Value: v})
			}
		}
	}

	return rec, nil
}

// creatorsFromSeq walks bib:authors/rdf:Seq/rdf:li/foaf:Person preserving
// sequence order.
func creatorsFromSeq(container *node) []formats.Creator {
	role := "author"
	switch container.name() {
	case "bib:editors":
		role = "editor"
	case "z:seriesEditors":
		role = "seriesEditor"
	case "bib:contributors":
		role = "contributor"
	}

	seq := container.child("rdf:Seq")
	if seq == nil {
		return nil
	}

	var creators []formats.Creator
	for i := range seq.Children {
		li := &seq.Children[i]
		if li.name() != "rdf:li" {
			continue
		}
		person := li.child("foaf:Person")
		if person == nil {
			if v := li.text(); v != "" {
				creators = append(creators, formats.Creator{Name: v, Role: role})
			}
			continue
		}
		var surname, given string
		if n := person.child("foaf:surname"); n != nil {
			surname = n.text()
		}
		if n := person.child("foaf:givenName"); n != nil {
			given = n.text()
		}
		name := surname
		if given != "" {
			name = surname + ", " + given
		}
		creators = append(creators, formats.Creator{Name: name, Role: role})
	}
	return creators
}

func attachmentFromResource(res *node) formats.AttachmentRef {
	ref := formats.AttachmentRef{}

	for i := range res.Children {
		c := &res.Children[i]
		switch c.name() {
		case "rdf:resource":
			ref.Path = unescapePath(c.Resource)
		case "dc:title":
			ref.Title = c.text()
		case "dc:identifier":
			if uri := c.child("dcterms:URI"); uri != nil {
				if v := uri.child("rdf:value"); v != nil {
					ref.URL = v.text()
				}
			}
		case "link:charset":
			ref.Charset = c.text()
		case "link:type":
			ref.MimeType = c.text()
		case "z:linkMode":
			if c.text() == "3" {
				ref.Link = true
			}
		}
	}

	return ref
}

// unescapePath decodes percent-escapes in relative file references like
// "files/2/My%20Snapshot.html". A reference that fails to decode is used
// verbatim and will surface later as a missing-file warning.
func unescapePath(p string) string {
	u, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return u
}
