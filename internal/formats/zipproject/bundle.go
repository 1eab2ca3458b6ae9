// Package zipproject parses ZIP-packaged annotation-project bundles: an
// archive carrying a relational store of references, PDF annotations with
// per-segment highlight rectangles, and tags, plus the referenced files.
package zipproject

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks the bundle into a fresh temp directory and returns the
// path of the embedded project database. The caller owns the temp dir.
func Extract(bundlePath string) (dbPath string, tempDir string, err error) {
	tempDir, err = os.MkdirTemp("", "refbase-project-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	zipReader, err := zip.OpenReader(bundlePath)
	if err != nil {
		os.RemoveAll(tempDir)
		return "", "", fmt.Errorf("failed to open project bundle: %w", err)
	}
	defer zipReader.Close()

	for _, file := range zipReader.File {
		destPath, err := safeJoin(tempDir, file.Name)
		if err != nil {
			os.RemoveAll(tempDir)
			return "", "", err
		}

		if file.FileInfo().IsDir() {
			os.MkdirAll(destPath, 0o755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			os.RemoveAll(tempDir)
			return "", "", fmt.Errorf("failed to create directory: %w", err)
		}

		if err := extractZipFile(file, destPath); err != nil {
			os.RemoveAll(tempDir)
			return "", "", fmt.Errorf("failed to extract file %s: %w", file.Name, err)
		}
	}

	dbPath, err = findProjectDB(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return "", "", err
	}

	return dbPath, tempDir, nil
}

// findProjectDB locates the relational store within the extracted bundle.
func findProjectDB(root string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		name := strings.ToLower(info.Name())
		if strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan extracted bundle: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("no project database found in bundle")
	}
	return found, nil
}

// safeJoin rejects entry names that would escape the extraction root.
func safeJoin(root, name string) (string, error) {
	dest := filepath.Join(root, name)
	if !strings.HasPrefix(dest, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal archive entry path %q", name)
	}
	return dest, nil
}

func extractZipFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, rc)
	return err
}
