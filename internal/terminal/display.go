// Package terminal prints results of the one-shot commands.
package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"chat-widget/internal/content"
	"chat-widget/internal/render"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWidth = 80

// Format selects how PrintReply renders a reply.
type Format string

const (
	// FormatAuto uses glamour on a terminal and Markdown otherwise.
	FormatAuto     Format = "auto"
	FormatTerminal Format = "terminal"
	FormatMarkdown Format = "markdown"
	// FormatHTML writes the sanitized HTML fragment.
	FormatHTML Format = "html"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatTerminal, FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto, terminal, markdown or html)", s)
	}
}

// Display writes formatted output. Replies are rendered through glamour
// when the output is a terminal and as Markdown otherwise.
type Display struct {
	out      io.Writer
	errOut   io.Writer
	tty      bool
	width    int
	style    string
	format   Format
	renderer *render.Terminal

	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	label   lipgloss.Style

	mu            sync.Mutex
	spinnerActive bool
	spinnerDone   chan struct{}
	spinnerExited chan struct{}
}

// NewDisplay creates a display writing to out and errOut. style is the
// glamour style used for terminal output.
func NewDisplay(out, errOut io.Writer, style string) *Display {
	tty, width := IsTerminal(out)
	r := lipgloss.NewRenderer(out)
	d := &Display{
		out:     out,
		errOut:  errOut,
		tty:     tty,
		width:   width,
		style:   style,
		format:  FormatAuto,
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		label:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
	}
	return d
}

// IsTerminal reports whether w is a terminal and, if so, its width.
func IsTerminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = defaultWidth
	}
	return true, width
}

// SetFormat changes how replies are printed.
func (d *Display) SetFormat(f Format) {
	d.format = f
}

// PrintReply prints an assistant reply in the display's format.
func (d *Display) PrintReply(raw content.Raw) {
	switch d.format {
	case FormatHTML:
		fmt.Fprintln(d.out, render.FormatHTML(raw))
	case FormatMarkdown:
		fmt.Fprintln(d.out, render.FormatMarkdown(raw))
	case FormatTerminal:
		fmt.Fprintln(d.out, d.terminal().Render(raw))
	default:
		if !d.tty {
			fmt.Fprintln(d.out, render.FormatMarkdown(raw))
			return
		}
		fmt.Fprintln(d.out, d.label.Render("Assistant:"))
		fmt.Fprintln(d.out, d.terminal().Render(raw))
	}
}

func (d *Display) terminal() *render.Terminal {
	if d.renderer == nil {
		d.renderer = render.NewTerminal(d.style, d.width)
	}
	return d.renderer
}

// Println prints a plain line to the output.
func (d *Display) Println(s string) {
	fmt.Fprintln(d.out, s)
}

func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.errOut, d.info.Render("ℹ "+msg))
}

func (d *Display) PrintSuccess(msg string) {
	fmt.Fprintln(d.errOut, d.success.Render("✓ "+msg))
}

func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.errOut, d.failure.Render("✗ Error: "+err.Error()))
}

// ShowSpinner animates msg on the error stream until StopSpinner. It does
// nothing when the output is not a terminal.
func (d *Display) ShowSpinner(msg string) {
	d.StopSpinner()
	if !d.tty {
		return
	}

	d.mu.Lock()
	d.spinnerActive = true
	done := make(chan struct{})
	exited := make(chan struct{})
	d.spinnerDone, d.spinnerExited = done, exited
	d.mu.Unlock()

	go func() {
		defer close(exited)
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(d.errOut, "\r%s", d.info.Render(frames[i]+" "+msg))
			select {
			case <-done:
				fmt.Fprint(d.errOut, "\r\033[2K\r")
				return
			case <-ticker.C:
			}
		}
	}()
}

// StopSpinner stops the active spinner and waits for its line to clear.
func (d *Display) StopSpinner() {
	d.mu.Lock()
	if !d.spinnerActive {
		d.mu.Unlock()
		return
	}
	d.spinnerActive = false
	done, exited := d.spinnerDone, d.spinnerExited
	d.mu.Unlock()

	close(done)
	<-exited
}
