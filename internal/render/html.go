package render

import (
	"bytes"

	"chat-widget/internal/content"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// policy is the last gate before markup leaves the package: only the tags
// the formatter itself produces survive it.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("span", "div", "strong", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span", "div", "a", "strong")
	p.AllowURLSchemes("http", "https", "ftp")
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	return p
}

// HTML serializes a tree into markup that is safe to inject into a page.
// Text is escaped by the serializer; the sanitizer then strips anything the
// formatter did not produce.
func HTML(t Tree) string {
	if t.Empty() {
		return ""
	}

	var roots []*html.Node
	if t.Kind == "text" {
		span := element(atom.Span, "chat-text")
		appendHTML(span, t.Nodes)
		roots = append(roots, span)
	} else {
		for _, n := range t.Nodes {
			roots = append(roots, toHTML(n))
		}
	}

	var buf bytes.Buffer
	for _, r := range roots {
		if err := html.Render(&buf, r); err != nil {
			return ""
		}
	}
	return policy.Sanitize(buf.String())
}

// FormatHTML is Format followed by HTML.
func FormatHTML(raw content.Raw) string {
	return HTML(Format(raw))
}

func element(a atom.Atom, class string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendHTML(parent *html.Node, nodes []Node) {
	for _, n := range nodes {
		parent.AppendChild(toHTML(n))
	}
}

func toHTML(n Node) *html.Node {
	switch n.Kind {
	case NodeBreak:
		return element(atom.Br, "")
	case NodeStrong:
		el := element(atom.Strong, "")
		appendHTML(el, n.Children)
		return el
	case NodeLink:
		el := element(atom.A, "chat-link", html.Attribute{Key: "href", Val: n.Href})
		appendHTML(el, n.Children)
		return el
	case NodeLinkList:
		el := element(atom.Div, "link-list")
		appendHTML(el, n.Children)
		return el
	case NodeLinkCard:
		el := element(atom.Div, "link-card")
		appendHTML(el, n.Children)
		return el
	case NodeSnippet:
		el := element(atom.Div, "link-snippet")
		el.AppendChild(text(n.Text))
		return el
	case NodeWeatherCard:
		el := element(atom.Div, "weather-card")
		appendHTML(el, n.Children)
		return el
	case NodeField:
		el := element(atom.Div, "weather-field")
		el.AppendChild(text(n.Label + ": "))
		value := element(atom.Span, "weather-value")
		value.AppendChild(text(n.Text))
		el.AppendChild(value)
		return el
	case NodeOpaque:
		el := element(atom.Span, "chat-opaque")
		el.AppendChild(text(n.Text))
		return el
	default:
		return text(n.Text)
	}
}
