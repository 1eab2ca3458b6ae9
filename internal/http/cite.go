package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/refbase/internal/citations"
	"github.com/mrlokans/refbase/internal/clipboard"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/entities"
)

// CiteController renders citations for stored items and writes both
// flavors to the configured sink.
type CiteController struct {
	items     *items.Repository
	formatter *citations.Formatter
	sink      clipboard.Sink
}

func NewCiteController(itemsRepo *items.Repository, formatter *citations.Formatter, sink clipboard.Sink) *CiteController {
	return &CiteController{items: itemsRepo, formatter: formatter, sink: sink}
}

type CiteRequest struct {
	ItemKeys     []string `json:"item_keys" binding:"required"`
	Style        string   `json:"style"`
	Locale       string   `json:"locale"`
	AsHTML       bool     `json:"as_html"`
	CitationOnly bool     `json:"citation_only"`
}

// Cite handles POST /api/cite.
func (c *CiteController) Cite(ctx *gin.Context) {
	var req CiteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := c.items.GetByKeys(req.ItemKeys)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.IndentedJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	refs := make([]*entities.Item, len(stored))
	for i := range stored {
		refs[i] = &stored[i]
	}

	if req.Style == "" {
		req.Style = citations.StyleAuthorDate
	}

	out, err := c.formatter.Render(refs, req.Style, req.Locale, req.AsHTML, req.CitationOnly)
	if err != nil {
		ctx.IndentedJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if c.sink != nil {
		if err := c.sink.Write(out.RichText, out.PlainText); err != nil {
			ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	ctx.IndentedJSON(http.StatusOK, out)
}
