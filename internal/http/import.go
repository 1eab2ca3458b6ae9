package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/refbase/internal/formats"
	"github.com/mrlokans/refbase/internal/importers"
)

const maxImportFileSize = 100 * 1024 * 1024 // 100 MB

// ImportController handles uploads of bibliographic source files.
type ImportController struct {
	coordinator *importers.Coordinator
}

func NewImportController(coordinator *importers.Coordinator) *ImportController {
	return &ImportController{coordinator: coordinator}
}

// Import handles POST /api/import. The upload is spooled to a temporary
// file because parsers and the attachment resolver need a real path (and,
// for ZIP bundles, random access).
func (c *ImportController) Import(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": "source file not provided"})
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		ctx.IndentedJSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large (max %d MB)", maxImportFileSize/(1024*1024)),
		})
		return
	}

	tmpDir, err := os.MkdirTemp("", "refbase-upload-*")
	if err != nil {
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.RemoveAll(tmpDir)

	// Keep the original name: the detector looks at the extension and the
	// default collection is named after the file.
	path := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := io.Copy(dst, io.LimitReader(file, maxImportFileSize+1)); err != nil {
		dst.Close()
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	dst.Close()

	opts := importers.Options{}
	if v := ctx.PostForm("create_new_collection"); v != "" {
		createNew, err := strconv.ParseBool(v)
		if err != nil {
			ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": "create_new_collection must be a boolean"})
			return
		}
		opts.CreateNewCollection = &createNew
	}
	if v := ctx.PostForm("target_collection_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": "target_collection_id must be an integer"})
			return
		}
		opts.TargetCollectionID = uint(id)
	}

	result, err := c.coordinator.ImportFile(ctx.Request.Context(), path, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, formats.ErrUnrecognizedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		ctx.IndentedJSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.IndentedJSON(http.StatusOK, result)
}
