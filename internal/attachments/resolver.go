// Package attachments binds parser-emitted file references to physical
// companion files and stages imported copies under the storage root.
package attachments

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
)

// Resolver locates referenced companion files relative to the source
// container and copies imported ones into the per-item storage root
// (<storage>/<attachment key>/<filename>).
type Resolver struct {
	storageDir string
	newKey     func() string
}

func NewResolver(storageDir string, newKey func() string) *Resolver {
	return &Resolver{storageDir: storageDir, newKey: newKey}
}

// Resolve binds one reference. A missing file yields a warning and no
// attachment; the parent item import still succeeds.
func (r *Resolver) Resolve(baseDir string, recordIndex int, ref formats.AttachmentRef) (*entities.Attachment, *formats.Warning) {
	att := &entities.Attachment{
		Key:      r.newKey(),
		Title:    ref.Title,
		URL:      ref.URL,
		MimeType: ref.MimeType,
		Charset:  ref.Charset,
		LinkMode: entities.LinkModeImportedFile,
	}
	if ref.URL != "" {
		att.LinkMode = entities.LinkModeImportedURL
	}

	// URL-only references need no file on disk.
	if ref.Path == "" {
		if ref.URL == "" {
			w := missingWarning(recordIndex, "attachment reference has no path or URL")
			return nil, &w
		}
		r.inferTypes(att, "")
		return att, nil
	}

	src := ref.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(baseDir, ref.Path)
	}

	if _, err := os.Stat(src); err != nil {
		w := missingWarning(recordIndex, fmt.Sprintf("referenced file %q not found", ref.Path))
		return nil, &w
	}

	if att.Title == "" {
		att.Title = filepath.Base(src)
	}
	r.inferTypes(att, src)

	if ref.Link {
		att.LinkMode = entities.LinkModeLinkedFile
		att.StoragePath = src
		return att, nil
	}

	destDir := filepath.Join(r.storageDir, att.Key)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		w := missingWarning(recordIndex, fmt.Sprintf("failed to stage %q: %v", ref.Path, err))
		return nil, &w
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := copyFile(src, dest); err != nil {
		os.RemoveAll(destDir)
		w := missingWarning(recordIndex, fmt.Sprintf("failed to copy %q: %v", ref.Path, err))
		return nil, &w
	}

	att.StoragePath = filepath.Join(att.Key, filepath.Base(src))
	return att, nil
}

// Discard removes the staged copy of an attachment that will not be
// persisted. Linked files are referenced in place and left alone.
func (r *Resolver) Discard(att *entities.Attachment) {
	if att.StoragePath == "" || att.LinkMode == entities.LinkModeLinkedFile {
		return
	}
	os.RemoveAll(filepath.Join(r.storageDir, att.Key))
}

// Open returns the content of an imported attachment.
func (r *Resolver) Open(att *entities.Attachment) (io.ReadCloser, error) {
	path := att.StoragePath
	if att.LinkMode != entities.LinkModeLinkedFile {
		path = filepath.Join(r.storageDir, att.StoragePath)
	}
	return os.Open(path)
}

// inferTypes fills mimeType from the extension when the source declared
// none, and defaults charset to utf-8 for undeclared textual content.
func (r *Resolver) inferTypes(att *entities.Attachment, src string) {
	if att.MimeType == "" && src != "" {
		if byExt := mime.TypeByExtension(filepath.Ext(src)); byExt != "" {
			att.MimeType = byExt
		}
	}
	if att.MimeType == "" {
		att.MimeType = "application/octet-stream"
	}
	// Parameters like "; charset=utf-8" belong in Charset, not MimeType.
	if base, params, err := mime.ParseMediaType(att.MimeType); err == nil {
		att.MimeType = base
		if att.Charset == "" {
			att.Charset = params["charset"]
		}
	}
	if att.Charset == "" && isText(att.MimeType) {
		att.Charset = "utf-8"
	}
}

func isText(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") ||
		mimeType == "application/xhtml+xml" ||
		mimeType == "application/xml"
}

func missingWarning(recordIndex int, msg string) formats.Warning {
	return formats.Warning{
		Kind:    formats.WarningMissingAttachment,
		Record:  recordIndex,
		Message: msg,
	}
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
