// Package render turns reply payloads into render trees and serializes those
// trees for HTML, Markdown and terminal display.
package render

import (
	"regexp"
	"strings"

	"chat-widget/internal/content"
)

var (
	boldPattern   = regexp.MustCompile(`(?s)\*\*(.*?)\*\*`)
	urlPattern    = regexp.MustCompile(`(?i)(\b(https?|ftp|file)://[-A-Z0-9+&@#/%?=~_|!:,.;]*[-A-Z0-9+&@#/%=~_|])|(\bwww\.[-A-Z0-9+&@#/%?=~_|!:,.;]*[-A-Z0-9+&@#/%=~_|])`)
	schemePattern = regexp.MustCompile(`(?i)^(https?|ftp|file)://`)
)

// Format maps a payload to its render tree. It is pure: equal payloads give
// structurally equal trees.
func Format(raw content.Raw) Tree {
	tree := Tree{Kind: raw.Kind().String()}
	switch raw.Kind() {
	case content.KindLinks:
		tree.Nodes = []Node{formatLinks(raw.Links())}
	case content.KindWeather:
		tree.Nodes = []Node{formatWeather(raw.Weather())}
	case content.KindOpaque:
		tree.Nodes = []Node{{Kind: NodeOpaque, Value: raw.Opaque(), Text: raw.PlainText()}}
	default:
		tree.Nodes = FormatText(raw.Text())
	}
	return tree
}

func formatLinks(links []content.Link) Node {
	list := Node{Kind: NodeLinkList}
	for _, l := range links {
		card := Node{Kind: NodeLinkCard, Children: []Node{{
			Kind:     NodeLink,
			Href:     l.URL,
			Children: []Node{textNode(l.Title)},
		}}}
		if l.Snippet != "" {
			card.Children = append(card.Children, Node{Kind: NodeSnippet, Text: l.Snippet})
		}
		list.Children = append(list.Children, card)
	}
	return list
}

func formatWeather(w content.Weather) Node {
	card := Node{Kind: NodeWeatherCard}
	for _, f := range w.Fields() {
		card.Children = append(card.Children, Node{Kind: NodeField, Label: f.Label, Text: f.Value})
	}
	return card
}

// FormatText runs the plain text pipeline: **bold** spans become strong
// nodes, bare URLs and www. tokens become links, newlines become breaks.
// Every character of s ends up in a text node or a link; nothing is ever
// interpreted as markup.
func FormatText(s string) []Node {
	if s == "" {
		return nil
	}

	var nodes []Node
	pos := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > pos {
			nodes = append(nodes, linkify(s[pos:m[0]])...)
		}
		nodes = append(nodes, Node{Kind: NodeStrong, Children: linkify(s[m[2]:m[3]])})
		pos = m[1]
	}
	if pos < len(s) {
		nodes = append(nodes, linkify(s[pos:])...)
	}
	return nodes
}

func linkify(s string) []Node {
	var nodes []Node
	pos := 0
	for _, m := range urlPattern.FindAllStringIndex(s, -1) {
		if m[0] > pos {
			nodes = append(nodes, breakLines(s[pos:m[0]])...)
		}
		token := s[m[0]:m[1]]
		nodes = append(nodes, Node{Kind: NodeLink, Href: linkHref(token), Children: []Node{textNode(token)}})
		pos = m[1]
	}
	if pos < len(s) {
		nodes = append(nodes, breakLines(s[pos:])...)
	}
	return nodes
}

// linkHref defaults scheme-less tokens to http://.
func linkHref(token string) string {
	if schemePattern.MatchString(token) {
		return token
	}
	return "http://" + token
}

func breakLines(s string) []Node {
	var nodes []Node
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			nodes = append(nodes, Node{Kind: NodeBreak})
		}
		if line != "" {
			nodes = append(nodes, textNode(line))
		}
	}
	return nodes
}

// PlainText is the unformatted form of a payload, used while a reply is
// still being revealed.
func PlainText(raw content.Raw) string {
	return raw.PlainText()
}
