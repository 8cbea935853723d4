// Package animator reveals a reply one rune per tick to simulate typing.
package animator

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the delay between two revealed runes.
const DefaultInterval = 15 * time.Millisecond

// ErrActive is returned by Start while a reveal is still running.
var ErrActive = errors.New("animator: reveal already active")

// TickMsg advances the reveal of the generation that scheduled it.
type TickMsg struct {
	gen int
}

// FinalizedMsg is emitted once, when the whole text has been revealed.
type FinalizedMsg struct {
	Text string
	gen  int
}

// Animator holds the state of one reveal at a time. It is not safe for
// concurrent use; it is meant to be driven from a bubbletea Update loop.
type Animator struct {
	interval time.Duration
	full     []rune
	revealed int
	active   bool
	gen      int
}

func New(interval time.Duration) *Animator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Animator{interval: interval}
}

// Start begins revealing full. An empty text completes immediately.
func (a *Animator) Start(full string) (tea.Cmd, error) {
	if a.active {
		return nil, ErrActive
	}
	a.gen++
	a.full = []rune(full)
	a.revealed = 0
	if len(a.full) == 0 {
		return a.finalize(), nil
	}
	a.active = true
	return a.tick(), nil
}

// Update handles ticks. Ticks from a stopped or replaced reveal are dropped.
func (a *Animator) Update(msg tea.Msg) tea.Cmd {
	t, ok := msg.(TickMsg)
	if !ok || !a.active || t.gen != a.gen {
		return nil
	}
	a.revealed++
	if a.revealed < len(a.full) {
		return a.tick()
	}
	a.active = false
	return a.finalize()
}

// Stop abandons the current reveal. Ticks and finalizations already
// scheduled for it are ignored from now on.
func (a *Animator) Stop() {
	a.gen++
	a.active = false
}

// Owns reports whether msg was produced by the current reveal.
func (a *Animator) Owns(msg FinalizedMsg) bool {
	return msg.gen == a.gen
}

// Active reports whether a reveal is in progress.
func (a *Animator) Active() bool { return a.active }

// Revealed returns the part of the text shown so far.
func (a *Animator) Revealed() string {
	return string(a.full[:a.revealed])
}

// Progress returns the revealed and total rune counts.
func (a *Animator) Progress() (int, int) {
	return a.revealed, len(a.full)
}

func (a *Animator) tick() tea.Cmd {
	gen := a.gen
	return tea.Tick(a.interval, func(time.Time) tea.Msg {
		return TickMsg{gen: gen}
	})
}

func (a *Animator) finalize() tea.Cmd {
	msg := FinalizedMsg{Text: string(a.full), gen: a.gen}
	a.revealed = len(a.full)
	return func() tea.Msg { return msg }
}
