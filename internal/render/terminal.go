package render

import (
	"strings"

	"chat-widget/internal/content"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

// Terminal renders payloads for a terminal through glamour. When glamour
// cannot be set up or fails, it falls back to the payload's plain text.
type Terminal struct {
	renderer *glamour.TermRenderer
}

// NewTerminal builds a renderer for the given glamour style ("auto" picks
// one from the terminal background) and wrap width.
func NewTerminal(style string, width int) *Terminal {
	styleOpt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		log.Warn().Err(err).Str("style", style).Msg("glamour renderer unavailable, using plain text")
		return &Terminal{}
	}
	return &Terminal{renderer: r}
}

// Render formats raw and renders it for display.
func (t *Terminal) Render(raw content.Raw) string {
	if raw.IsEmpty() {
		return ""
	}
	if t == nil || t.renderer == nil {
		return raw.PlainText()
	}
	out, err := t.renderer.Render(FormatMarkdown(raw))
	if err != nil {
		log.Debug().Err(err).Msg("glamour render failed")
		return raw.PlainText()
	}
	return strings.Trim(out, "\n")
}

