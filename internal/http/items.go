package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/entities"
)

// ItemsController serves read access to stored items.
type ItemsController struct {
	db    *database.Database
	items *items.Repository
}

func NewItemsController(db *database.Database, itemsRepo *items.Repository) *ItemsController {
	return &ItemsController{db: db, items: itemsRepo}
}

// ItemView is the wire shape of one item.
type ItemView struct {
	Key         string            `json:"key"`
	ItemType    string            `json:"item_type"`
	Fields      map[string]string `json:"fields"`
	Creators    []string          `json:"creators,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	Notes       int               `json:"notes"`
	Tags        []string          `json:"tags,omitempty"`
}

func itemView(item *entities.Item) ItemView {
	view := ItemView{
		Key:      item.Key,
		ItemType: item.ItemType,
		Fields:   item.FieldMap(),
		Notes:    len(item.Notes),
	}
	for _, c := range item.Creators {
		name := c.LastName
		if c.FirstName != "" {
			name = c.LastName + ", " + c.FirstName
		}
		view.Creators = append(view.Creators, name)
	}
	for _, att := range item.Attachments {
		view.Attachments = append(view.Attachments, att.Key)
	}
	for _, tag := range item.Tags {
		view.Tags = append(view.Tags, tag.Name)
	}
	return view
}

// List handles GET /api/items.
func (c *ItemsController) List(ctx *gin.Context) {
	all, err := c.items.GetAllTopLevel(c.db.UserLibraryID())
	if err != nil {
		ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]ItemView, 0, len(all))
	for i := range all {
		views = append(views, itemView(&all[i]))
	}
	ctx.IndentedJSON(http.StatusOK, gin.H{"items": views})
}

// Get handles GET /api/items/:key.
func (c *ItemsController) Get(ctx *gin.Context) {
	item, err := c.items.GetByKey(ctx.Param("key"))
	if err != nil {
		ctx.IndentedJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	ctx.IndentedJSON(http.StatusOK, itemView(item))
}
