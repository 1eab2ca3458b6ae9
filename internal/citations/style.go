package citations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrlokans/refbase/internal/entities"
)

// Rendered is one style output in both flavors. Plain is Rich with the
// markup stripped, never a separate rendering pass.
type Rendered struct {
	Rich  string
	Plain string
}

// Style renders stored items into citation and bibliography text. Styles
// are an opaque service boundary: the formatter never inspects their
// markup beyond carrying it to the sink.
type Style interface {
	ID() string
	Citation(items []*entities.Item, locale string) (Rendered, error)
	Bibliography(items []*entities.Item, locale string) (Rendered, error)
}

// StyleAuthorDate is the identifier of the built-in style.
const StyleAuthorDate = "author-date"

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// authorDateStyle is a compact author-date style: citations are
// "(<i>Label</i>, Year)" groups joined with "; ", bibliography entries are
// "Label. (Year)." lines.
type authorDateStyle struct{}

func (authorDateStyle) ID() string { return StyleAuthorDate }

// label picks the text an item is cited under: first creator's last name,
// falling back to the title for creatorless items.
func label(item *entities.Item) string {
	for _, c := range item.Creators {
		if c.LastName != "" {
			return c.LastName
		}
	}
	if title := item.Field("title"); title != "" {
		return title
	}
	return item.Key
}

// year extracts the year component of a partial date ("2016-07-02" -> "2016").
func year(item *entities.Item) string {
	date := item.Field("date")
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

func (s authorDateStyle) Citation(items []*entities.Item, locale string) (Rendered, error) {
	if len(items) == 0 {
		return Rendered{}, fmt.Errorf("%w: no items to cite", ErrStyleRender)
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("<i>%s</i>, %s", label(item), year(item)))
	}
	rich := "(" + strings.Join(parts, "; ") + ")"
	return Rendered{Rich: rich, Plain: stripTags(rich)}, nil
}

func (s authorDateStyle) Bibliography(items []*entities.Item, locale string) (Rendered, error) {
	if len(items) == 0 {
		return Rendered{}, fmt.Errorf("%w: no items to cite", ErrStyleRender)
	}

	var rich, plain strings.Builder
	rich.WriteString(`<div class="bibliography" style="line-height: 1.35; margin-left: 2em; text-indent: -2em;">` + "\n")
	for _, item := range items {
		entry := fmt.Sprintf("<i>%s</i>. (%s).", label(item), year(item))
		rich.WriteString(`<div class="entry">` + entry + "</div>\n")
		plain.WriteString(stripTags(entry) + "\n")
	}
	rich.WriteString("</div>")
	return Rendered{Rich: rich.String(), Plain: plain.String()}, nil
}
