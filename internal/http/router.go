// Package http exposes the import, item, search and citation operations
// over a small JSON API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/refbase/internal/citations"
	"github.com/mrlokans/refbase/internal/clipboard"
	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/fulltext"
	"github.com/mrlokans/refbase/internal/importers"
)

// RouterConfig carries all router dependencies, keeping NewRouter's
// signature stable as endpoints grow.
type RouterConfig struct {
	Database    *database.Database
	Items       *items.Repository
	Coordinator *importers.Coordinator
	Fulltext    *fulltext.Service
	Formatter   *citations.Formatter
	Sink        clipboard.Sink
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	importController := NewImportController(cfg.Coordinator)
	itemsController := NewItemsController(cfg.Database, cfg.Items)
	citeController := NewCiteController(cfg.Items, cfg.Formatter, cfg.Sink)
	searchController := NewSearchController(cfg.Items, cfg.Fulltext)

	api := router.Group("/api")
	{
		api.POST("/import", importController.Import)
		api.GET("/items", itemsController.List)
		api.GET("/items/:key", itemsController.Get)
		api.POST("/cite", citeController.Cite)
		api.GET("/search", searchController.Search)
	}

	return router
}
