package render

// NodeKind identifies a render tree element.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeBreak
	NodeStrong
	NodeLink
	NodeLinkList
	NodeLinkCard
	NodeSnippet
	NodeWeatherCard
	NodeField
	NodeOpaque
)

// Node is one element of a render tree. Text holds literal, unescaped text;
// back-ends are responsible for escaping it.
type Node struct {
	Kind     NodeKind
	Text     string
	Href     string
	Label    string
	Value    any
	Children []Node
}

// Tree is the safe-to-display form of a reply payload.
type Tree struct {
	Kind  string
	Nodes []Node
}

// Empty reports whether the tree renders nothing.
func (t Tree) Empty() bool {
	return len(t.Nodes) == 0
}

func textNode(s string) Node { return Node{Kind: NodeText, Text: s} }
