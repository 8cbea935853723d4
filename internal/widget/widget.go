// Package widget tracks whether the chat panel is open and how many
// assistant messages arrived while it was collapsed.
package widget

// Rect is an area of the screen in cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Visibility is the open/closed state of the widget plus its unread badge.
// It never touches the conversation itself.
type Visibility struct {
	open   bool
	unread int
}

// NewVisibility returns a controller in the given initial state.
func NewVisibility(open bool) *Visibility {
	return &Visibility{open: open}
}

func (v *Visibility) IsOpen() bool { return v.open }

func (v *Visibility) Unread() int { return v.unread }

// Toggle flips the widget and reports whether it is now open.
func (v *Visibility) Toggle() bool {
	if v.open {
		v.Close()
	} else {
		v.Open()
	}
	return v.open
}

// Open shows the panel and marks everything read.
func (v *Visibility) Open() {
	v.open = true
	v.unread = 0
}

func (v *Visibility) Close() {
	v.open = false
}

// NoteAssistantMessage counts an assistant message if the panel is closed.
func (v *Visibility) NoteAssistantMessage() {
	if !v.open {
		v.unread++
	}
}

func (v *Visibility) ResetUnread() {
	v.unread = 0
}

// HandlePointer closes an open widget when a press lands outside bounds and
// reports whether it did.
func (v *Visibility) HandlePointer(x, y int, bounds Rect) bool {
	if !v.open || bounds.Contains(x, y) {
		return false
	}
	v.Close()
	return true
}
