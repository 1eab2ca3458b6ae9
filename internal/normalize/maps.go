package normalize

import "github.com/mrlokans/refbase/internal/entities"

// Static mapping tables from format-native type and field names to the
// canonical schema. Loaded once as package state and never mutated.

// risTypeMap maps RIS TY values to canonical item types.
var risTypeMap = map[string]string{
	"BOOK":   entities.ItemTypeBook,
	"CHAP":   entities.ItemTypeBookSection,
	"JOUR":   entities.ItemTypeJournalArticle,
	"CONF":   entities.ItemTypeConferencePaper,
	"CPAPER": entities.ItemTypeConferencePaper,
	"THES":   entities.ItemTypeThesis,
	"RPRT":   entities.ItemTypeReport,
	"ELEC":   entities.ItemTypeWebpage,
	"GEN":    entities.ItemTypeDocument,
}

// risFieldMap maps RIS tags to canonical field names. Tags absent here are
// ignored, matching the format's tolerance for unknown tags.
var risFieldMap = map[string]string{
	"TI": "title",
	"T1": "title",
	"T2": "publicationTitle",
	"JO": "publicationTitle",
	"JF": "publicationTitle",
	"PY": "date",
	"Y1": "date",
	"DA": "date",
	"AB": "abstractNote",
	"N2": "abstractNote",
	"VL": "volume",
	"IS": "issue",
	"SP": "pages",
	"PB": "publisher",
	"CY": "place",
	"SN": "ISBN",
	"UR": "url",
	"DO": "DOI",
	"ET": "edition",
	"LA": "language",
}

// rdfTypeMap maps RDF resource type names to canonical item types.
var rdfTypeMap = map[string]string{
	"bib:Book":                  entities.ItemTypeBook,
	"bib:BookSection":           entities.ItemTypeBookSection,
	"bib:Article":               entities.ItemTypeJournalArticle,
	"bib:Chapter":               entities.ItemTypeBookSection,
	"bib:Thesis":                entities.ItemTypeThesis,
	"bib:Report":                entities.ItemTypeReport,
	"bib:ConferenceProceedings": entities.ItemTypeConferencePaper,
	"bib:Document":              entities.ItemTypeDocument,
	"z:Webpage":                 entities.ItemTypeWebpage,
}

// rdfFieldMap maps prefixed RDF element names to canonical field names.
var rdfFieldMap = map[string]string{
	"dc:title":            "title",
	"dc:date":             "date",
	"dc:description":      "abstractNote",
	"dcterms:abstract":    "abstractNote",
	"dc:publisher":        "publisher",
	"dc:identifier":       "url",
	"prism:volume":        "volume",
	"prism:number":        "issue",
	"bib:pages":           "pages",
	"z:language":          "language",
	"dc:rights":           "rights",
	"dcterms:alternative": "journalAbbreviation",
}

// modsTypeMap maps MODS genre / typeOfResource values to canonical item
// types.
var modsTypeMap = map[string]string{
	"book":                   entities.ItemTypeBook,
	"academic journal":       entities.ItemTypeJournalArticle,
	"periodical":             entities.ItemTypeJournalArticle,
	"journal article":        entities.ItemTypeJournalArticle,
	"conference publication": entities.ItemTypeConferencePaper,
	"thesis":                 entities.ItemTypeThesis,
	"technical report":       entities.ItemTypeReport,
	"web site":               entities.ItemTypeWebpage,
	"text":                   entities.ItemTypeDocument,
}

// modsFieldMap maps the parser's fixed extraction names to canonical
// fields.
var modsFieldMap = map[string]string{
	"title":      "title",
	"dateIssued": "date",
	"publisher":  "publisher",
	"place":      "place",
	"edition":    "edition",
	"abstract":   "abstractNote",
	"url":        "url",
	"isbn":       "ISBN",
	"issn":       "ISSN",
	"doi":        "DOI",
	"hostTitle":  "publicationTitle",
	"volume":     "volume",
	"issue":      "issue",
	"pages":      "pages",
}

// projectTypeMap maps ZIP-project reference types to canonical item types.
var projectTypeMap = map[string]string{
	"book":            entities.ItemTypeBook,
	"journal_article": entities.ItemTypeJournalArticle,
	"thesis":          entities.ItemTypeThesis,
	"report":          entities.ItemTypeReport,
}

// projectFieldMap maps ZIP-project reference columns to canonical fields.
var projectFieldMap = map[string]string{
	"title": "title",
	"year":  "date",
}

// creatorRoleMap normalizes source role names to canonical creator types.
// Unknown roles default to "author".
var creatorRoleMap = map[string]string{
	"author":       "author",
	"aut":          "author",
	"creator":      "author",
	"editor":       "editor",
	"edt":          "editor",
	"seriesEditor": "seriesEditor",
	"translator":   "translator",
	"trl":          "translator",
	"contributor":  "contributor",
	"ctb":          "contributor",
}
