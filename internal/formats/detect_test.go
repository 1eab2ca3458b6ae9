package formats

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestDetectFormat_ByExtension(t *testing.T) {
	cases := []struct {
		name string
		want Format
	}{
		{"references.ris", FormatRIS},
		{"export.rdf", FormatRDF},
		{"records.mods", FormatMODS},
		{"project.ctv6", FormatZIPProject},
		{"project.zip", FormatZIPProject},
	}

	for _, tc := range cases {
		// Content deliberately does not match the extension; extension wins.
		path := writeFixture(t, tc.name, []byte("arbitrary"))
		got, err := DetectFormat(path)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDetectFormat_BySniffing(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		want    Format
	}{
		{"zip magic", []byte("PK\x03\x04rest-of-archive"), FormatZIPProject},
		{"rdf root", []byte(`<?xml version="1.0"?><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`), FormatRDF},
		{"mods collection", []byte(`<?xml version="1.0"?><modsCollection>`), FormatMODS},
		{"ris opener", []byte("TY  - BOOK\nTI  - Test\n"), FormatRIS},
		{"bom before xml", []byte("\uFEFF<?xml version=\"1.0\"?><modsCollection>"), FormatMODS},
		{"bom before ris", []byte("\uFEFFTY  - BOOK\nTI  - Test\n"), FormatRIS},
	}

	for _, tc := range cases {
		path := writeFixture(t, "upload.dat", tc.content)
		got, err := DetectFormat(path)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDetectFormat_Unrecognized(t *testing.T) {
	path := writeFixture(t, "unknown.dat", []byte("just some prose"))
	_, err := DetectFormat(path)
	if err != ErrUnrecognizedFormat {
		t.Errorf("expected ErrUnrecognizedFormat, got %v", err)
	}

	path = writeFixture(t, "unknown.xml", []byte("<html><body>nope</body></html>"))
	_, err = DetectFormat(path)
	if err != ErrUnrecognizedFormat {
		t.Errorf("expected ErrUnrecognizedFormat for unknown XML, got %v", err)
	}
}
