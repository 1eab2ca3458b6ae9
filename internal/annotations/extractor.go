// Package annotations turns raw parser annotations into canonical
// Annotation entities: trimmed quote text, rects in source order, and a
// fixed-width sort index whose lexicographic order is reading order.
package annotations

import (
	"fmt"
	"strings"

	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
)

// SortIndex encodes page, primary text offset, and character position as
// zero-padded fields joined by "|". String comparison of two sort indexes
// from the same attachment reproduces reading order.
func SortIndex(pageIndex, offset, charPos int) string {
	return fmt.Sprintf("%05d|%06d|%05d", clamp(pageIndex, 99999), clamp(offset, 999999), clamp(charPos, 99999))
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Build converts one raw annotation. Rects keep the source's per-segment
// emission order; they are never sorted geometrically. Tags are carried
// through unchanged, including reserved names like "comment".
func Build(raw formats.RawAnnotation) entities.Annotation {
	a := entities.Annotation{
		Text:      strings.TrimSpace(raw.Text),
		Comment:   strings.TrimSpace(raw.Comment),
		PageIndex: raw.PageIndex,
		SortIndex: SortIndex(raw.PageIndex, raw.Offset, raw.CharPos),
	}

	for i, r := range raw.Rects {
		a.Rects = append(a.Rects, entities.AnnotationRect{
			Seq: i,
			X1:  r[0], Y1: r[1], X2: r[2], Y2: r[3],
		})
	}

	for _, name := range raw.Tags {
		if name = strings.TrimSpace(name); name != "" {
			a.Tags = append(a.Tags, entities.Tag{Name: name})
		}
	}

	return a
}
