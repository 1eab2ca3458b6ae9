// Package citations renders stored items into citation and bibliography
// text in two simultaneous flavors, rich markup and plain text, for a
// dual-flavor output sink.
package citations

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/refbase/internal/entities"
)

// ErrStyleRender marks a failed render call. Stored items are untouched.
var ErrStyleRender = errors.New("citation style render failed")

// Output is what gets written to the sink: both flavors together.
type Output struct {
	RichText  string `json:"rich_text"`
	PlainText string `json:"plain_text"`
}

// Formatter resolves style identifiers and renders item sets. Item order
// is the caller's order throughout.
type Formatter struct {
	styles map[string]Style
}

func NewFormatter(styles ...Style) *Formatter {
	f := &Formatter{styles: make(map[string]Style)}
	f.register(authorDateStyle{})
	for _, s := range styles {
		f.register(s)
	}
	return f
}

func (f *Formatter) register(s Style) {
	f.styles[s.ID()] = s
}

// Render produces citation text (citationOnly) or a bibliography for the
// given items. When asHTML is set the caller wants markup in both flavors,
// so PlainText carries the rich rendering verbatim.
func (f *Formatter) Render(items []*entities.Item, styleID, locale string, asHTML, citationOnly bool) (*Output, error) {
	style, ok := f.styles[styleID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown style %q", ErrStyleRender, styleID)
	}

	var (
		rendered Rendered
		err      error
	)
	if citationOnly {
		rendered, err = style.Citation(items, locale)
	} else {
		rendered, err = style.Bibliography(items, locale)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{RichText: rendered.Rich, PlainText: rendered.Plain}
	if asHTML {
		out.PlainText = rendered.Rich
	}

	log.Debug().
		Str("style", styleID).
		Int("items", len(items)).
		Bool("citation_only", citationOnly).
		Msg("rendered citation output")

	return out, nil
}
