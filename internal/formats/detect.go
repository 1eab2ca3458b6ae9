package formats

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen is how many leading bytes detection may inspect. Sniffing uses
// its own file handle so the selected parser re-reads from the start.
const sniffLen = 512

var zipMagic = []byte("PK\x03\x04")

// DetectFormat inspects the file at path and reports which format family
// it belongs to. Extension wins; ambiguous extensions (.xml) and unknown
// ones fall back to content sniffing.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ris":
		return FormatRIS, nil
	case ".rdf":
		return FormatRDF, nil
	case ".mods":
		return FormatMODS, nil
	case ".ctv6", ".zip":
		return FormatZIPProject, nil
	}

	prefix, err := readPrefix(path)
	if err != nil {
		return "", err
	}
	return sniff(prefix)
}

func readPrefix(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for detection: %w", err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("failed to read file for detection: %w", err)
	}
	return buf[:n], nil
}

// sniff classifies a file by its leading bytes: ZIP magic, then XML root
// element (rdf:RDF vs mods), then the RIS record opener.
func sniff(prefix []byte) (Format, error) {
	if bytes.HasPrefix(prefix, zipMagic) {
		return FormatZIPProject, nil
	}

	head := strings.TrimLeft(string(prefix), " \t\r\n\uFEFF")
	if strings.HasPrefix(head, "<") {
		if strings.Contains(head, "<rdf:RDF") || strings.Contains(head, "rdf-syntax-ns") {
			return FormatRDF, nil
		}
		if strings.Contains(head, "<mods") || strings.Contains(head, "<modsCollection") {
			return FormatMODS, nil
		}
		return "", ErrUnrecognizedFormat
	}

	if strings.HasPrefix(head, "TY  - ") {
		return FormatRIS, nil
	}

	return "", ErrUnrecognizedFormat
}
