package render

import (
	"strings"

	"chat-widget/internal/content"
)

var (
	mdEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		`*`, `\*`,
		`_`, `\_`,
		`[`, `\[`,
		`]`, `\]`,
		`<`, `\<`,
		`>`, `\>`,
		`#`, `\#`,
		`|`, `\|`,
		`~`, `\~`,
	)
	hrefEscaper   = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")
	indentEscaper = strings.NewReplacer(" ", "\u00a0", "\t", "\u00a0\u00a0\u00a0\u00a0")
)

// Markdown serializes a tree as CommonMark. Literal text is escaped so
// only the tree's own structure turns into markup.
func Markdown(t Tree) string {
	var b strings.Builder
	writeMarkdown(&b, t.Nodes, true)
	return strings.TrimRight(b.String(), "\n")
}

// FormatMarkdown is Format followed by Markdown.
func FormatMarkdown(raw content.Raw) string {
	return Markdown(Format(raw))
}

func writeMarkdown(b *strings.Builder, nodes []Node, lineStart bool) {
	for _, n := range nodes {
		switch n.Kind {
		case NodeBreak:
			b.WriteString("  \n")
			lineStart = true
			continue
		case NodeStrong:
			b.WriteString("**")
			writeMarkdown(b, n.Children, false)
			b.WriteString("**")
		case NodeLink:
			b.WriteString("[")
			writeMarkdown(b, n.Children, false)
			b.WriteString("](")
			b.WriteString(hrefEscaper.Replace(n.Href))
			b.WriteString(")")
		case NodeLinkList:
			writeMarkdown(b, n.Children, true)
		case NodeLinkCard:
			b.WriteString("- ")
			for _, c := range n.Children {
				if c.Kind == NodeSnippet {
					b.WriteString("\n  ")
					b.WriteString(escapeLine(c.Text, true))
					continue
				}
				writeMarkdown(b, []Node{c}, false)
			}
			b.WriteString("\n")
		case NodeWeatherCard:
			writeMarkdown(b, n.Children, true)
		case NodeField:
			b.WriteString("- **")
			b.WriteString(escapeLine(n.Label, false))
			b.WriteString(":** ")
			b.WriteString(escapeLine(n.Text, false))
			b.WriteString("\n")
		case NodeOpaque:
			b.WriteString("```json\n")
			b.WriteString(strings.ReplaceAll(n.Text, "```", "` ` `"))
			b.WriteString("\n```\n")
		default:
			b.WriteString(escapeLine(n.Text, lineStart))
		}
		lineStart = false
	}
}

// escapeLine escapes inline markup, plus block markers when the text opens
// a line. Leading indentation becomes no-break spaces so it can never open
// an indented code block.
func escapeLine(s string, lineStart bool) string {
	s = mdEscaper.Replace(s)
	if !lineStart {
		return s
	}
	trimmed := strings.TrimLeft(s, " \t")
	indent := indentEscaper.Replace(s[:len(s)-len(trimmed)])
	switch {
	case strings.HasPrefix(trimmed, "-"), strings.HasPrefix(trimmed, "+"), strings.HasPrefix(trimmed, "="):
		// list items, thematic breaks and setext underlines
		return indent + `\` + trimmed
	case orderedMarker(trimmed) > 0:
		i := orderedMarker(trimmed)
		return indent + trimmed[:i] + `\` + trimmed[i:]
	}
	return indent + trimmed
}

// orderedMarker returns the index of the delimiter of a "12. " style list
// marker, or 0.
func orderedMarker(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(s) || (s[i] != '.' && s[i] != ')') || s[i+1] != ' ' {
		return 0
	}
	return i
}
