package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/fulltext"
)

// SearchController serves full-text queries over indexed attachments.
type SearchController struct {
	items    *items.Repository
	fulltext *fulltext.Service
}

func NewSearchController(itemsRepo *items.Repository, ft *fulltext.Service) *SearchController {
	return &SearchController{items: itemsRepo, fulltext: ft}
}

// Search handles GET /api/search?q=...&keys=K1&keys=K2. Without explicit
// keys the query runs over every indexed attachment.
func (c *SearchController) Search(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	keys := ctx.QueryArray("keys")
	if len(keys) == 0 {
		var err error
		keys, err = c.items.IndexedAttachmentKeys()
		if err != nil {
			ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	matches, err := c.fulltext.FindText(ctx.Request.Context(), keys, query)
	if err != nil {
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if matches == nil {
		matches = []fulltext.Match{}
	}
	ctx.IndentedJSON(http.StatusOK, gin.H{"matches": matches})
}
