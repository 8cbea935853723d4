package render

import (
	"testing"

	"chat-widget/internal/content"

	"github.com/stretchr/testify/require"
)

func TestFormatLinks(t *testing.T) {
	tree := Format(content.Links(content.Link{URL: "https://a", Title: "A"}))
	require.Equal(t, Tree{Kind: "links", Nodes: []Node{{
		Kind: NodeLinkList,
		Children: []Node{{
			Kind: NodeLinkCard,
			Children: []Node{{
				Kind:     NodeLink,
				Href:     "https://a",
				Children: []Node{{Kind: NodeText, Text: "A"}},
			}},
		}},
	}}}, tree)
}

func TestFormatWeatherOmitsAbsentFields(t *testing.T) {
	tree := Format(content.WeatherReport(content.Weather{Weather: "sunny", Temperature: "70F"}))
	require.Len(t, tree.Nodes, 1)
	card := tree.Nodes[0]
	require.Equal(t, NodeWeatherCard, card.Kind)
	require.Equal(t, []Node{
		{Kind: NodeField, Label: "Weather", Text: "sunny"},
		{Kind: NodeField, Label: "Temperature", Text: "70F"},
	}, card.Children)
}

func TestFormatTextBold(t *testing.T) {
	require.Equal(t, []Node{
		{Kind: NodeText, Text: "a "},
		{Kind: NodeStrong, Children: []Node{{Kind: NodeText, Text: "b"}}},
		{Kind: NodeText, Text: " c"},
	}, FormatText("a **b** c"))
}

func TestFormatTextUnterminatedBold(t *testing.T) {
	require.Equal(t, []Node{{Kind: NodeText, Text: "a **b"}}, FormatText("a **b"))
}

func TestFormatTextBoldSpansLines(t *testing.T) {
	require.Equal(t, []Node{{Kind: NodeStrong, Children: []Node{
		{Kind: NodeText, Text: "a"},
		{Kind: NodeBreak},
		{Kind: NodeText, Text: "b"},
	}}}, FormatText("**a\nb**"))
}

func TestFormatTextLinks(t *testing.T) {
	nodes := FormatText("see www.example.com or https://go.dev/doc.")
	require.Equal(t, []Node{
		{Kind: NodeText, Text: "see "},
		{Kind: NodeLink, Href: "http://www.example.com", Children: []Node{{Kind: NodeText, Text: "www.example.com"}}},
		{Kind: NodeText, Text: " or "},
		{Kind: NodeLink, Href: "https://go.dev/doc", Children: []Node{{Kind: NodeText, Text: "https://go.dev/doc"}}},
		{Kind: NodeText, Text: "."},
	}, nodes)
}

func TestFormatEmptyText(t *testing.T) {
	tree := Format(content.Text(""))
	require.True(t, tree.Empty())
	require.Equal(t, "", HTML(tree))
	require.Equal(t, "", Markdown(tree))
}

func TestFormatIsPure(t *testing.T) {
	raw := content.Text("hi **there** www.a.com\nbye")
	require.Equal(t, Format(raw), Format(raw))
}

func TestHTMLEscapesMarkup(t *testing.T) {
	out := FormatHTML(content.Text(`<script>alert("x")</script> **<b>hi</b>**`))
	require.NotContains(t, out, "<script")
	require.NotContains(t, out, "<b>")
	require.Contains(t, out, "&lt;script&gt;")
	require.Contains(t, out, "<strong>&lt;b&gt;hi&lt;/b&gt;</strong>")
}

func TestHTMLLinks(t *testing.T) {
	out := FormatHTML(content.Text("go to www.example.com"))
	require.Contains(t, out, `href="http://www.example.com"`)
	require.Contains(t, out, `target="_blank"`)
	require.Contains(t, out, ">www.example.com</a>")
}

func TestHTMLDropsUnsafeSchemes(t *testing.T) {
	out := FormatHTML(content.Links(content.Link{URL: "javascript:alert(1)", Title: "bad"}))
	require.NotContains(t, out, "javascript:")
	require.Contains(t, out, "bad")
}

func TestHTMLBreaks(t *testing.T) {
	require.Contains(t, FormatHTML(content.Text("a\nb")), "a<br/>b")
}

func TestHTMLWeatherCard(t *testing.T) {
	out := FormatHTML(content.WeatherReport(content.Weather{Weather: "rain", Temperature: "12C", Wind: "5 km/h"}))
	require.Contains(t, out, `class="weather-card"`)
	require.Contains(t, out, "Wind: ")
	require.NotContains(t, out, "Humidity")
}

func TestMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   content.Raw
		want string
	}{
		{"bold", content.Text("a **b** c"), "a **b** c"},
		{"escapes", content.Text("x_y *z* [q]"), `x\_y \*z\* \[q\]`},
		{"link", content.Text("see https://a.b"), "see [https://a.b](https://a.b)"},
		{"break", content.Text("a\nb"), "a  \nb"},
		{"list marker", content.Text("- item\n2. two"), "\\- item  \n2\\. two"},
		{"setext dashes", content.Text("a\n---"), "a  \n\\---"},
		{"setext equals", content.Text("a\n==="), "a  \n\\==="},
		{"indented code", content.Text("x\n    code"), "x  \n\u00a0\u00a0\u00a0\u00a0code"},
		{"tab indent", content.Text("\tcode"), "\u00a0\u00a0\u00a0\u00a0code"},
		{"links", content.Links(
			content.Link{URL: "https://a", Title: "A", Snippet: "snip"},
			content.Link{URL: "https://b", Title: "B"},
		), "- [A](https://a)\n  snip\n- [B](https://b)"},
		{"weather", content.WeatherReport(content.Weather{Weather: "sunny", Temperature: "70F"}),
			"- **Weather:** sunny\n- **Temperature:** 70F"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatMarkdown(tc.in))
		})
	}
}

func TestTerminalRender(t *testing.T) {
	term := NewTerminal("notty", 80)
	require.Contains(t, term.Render(content.Text("hello world")), "hello world")
	require.Equal(t, "", term.Render(content.Text("")))
}

func TestTerminalFallsBackToPlainText(t *testing.T) {
	var term *Terminal
	require.Equal(t, "A - https://a", term.Render(content.Links(content.Link{URL: "https://a", Title: "A"})))
}

func TestEscapeSequencesNeverReachTheTerminal(t *testing.T) {
	hostile := "hi \x1b]0;pwned\x07 \x1b]52;c;ZWNobyBoaQ==\x07 there\x1b[2J"
	payloads := []content.Raw{
		content.Text(hostile),
		content.Links(content.Link{URL: "https://a", Title: hostile, Snippet: hostile}),
		content.WeatherReport(content.Weather{Weather: hostile, Temperature: "70F"}),
	}
	term := NewTerminal("dark", 80)
	for _, raw := range payloads {
		md := FormatMarkdown(raw)
		require.NotContains(t, md, "\x1b")
		require.NotContains(t, md, "\x07")
		require.Contains(t, md, "there")

		out := term.Render(raw)
		require.NotContains(t, out, "pwned")
		require.NotContains(t, out, "]52;")
		require.NotContains(t, out, "\x07")
		require.NotContains(t, out, "\x1b[2J")
		require.NotContains(t, PlainText(raw), "\x1b")
	}
}

func TestSetextUnderlineStaysText(t *testing.T) {
	out := NewTerminal("notty", 80).Render(content.Text("title\n---"))
	require.Contains(t, out, "---")
	require.Contains(t, out, "title")
}
