// Package session drives one conversation: it submits user turns to the
// backend, reveals replies through the typing animator and records
// everything in the timeline. All methods must be called from the same
// goroutine, normally a bubbletea Update loop; backend calls run inside the
// returned commands.
package session

import (
	"context"
	"strings"
	"time"

	"chat-widget/internal/animator"
	"chat-widget/internal/backend"
	"chat-widget/internal/content"
	"chat-widget/internal/identity"
	"chat-widget/internal/render"
	"chat-widget/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// State is the position of the session in its turn cycle.
type State int

const (
	Idle State = iota
	AwaitingResponse
	TypingReply
	ShowingError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	case TypingReply:
		return "typing_reply"
	case ShowingError:
		return "showing_error"
	default:
		return "unknown"
	}
}

// Backend answers chat queries and forgets conversations.
type Backend interface {
	Query(ctx context.Context, req backend.QueryRequest) (backend.Reply, error)
	ClearHistory(ctx context.Context, userID string) error
}

// IdentitySource yields the user identity attached to requests.
type IdentitySource interface {
	GetOrCreate(ctx context.Context) identity.Identity
}

// Options tune a Session. The zero value is usable.
type Options struct {
	TypingInterval     time.Duration
	ResetThreadOnClear bool
}

// replyMsg carries a backend answer back to the loop. gen identifies the
// turn that issued the query.
type replyMsg struct {
	gen   int
	reply backend.Reply
	err   error
}

// clearedMsg reports the outcome of a remote clear.
type clearedMsg struct {
	err error
}

// Session is the conversation controller.
type Session struct {
	backend  Backend
	ids      IdentitySource
	opts     Options
	timeline *timeline.Timeline
	anim     *animator.Animator

	state    State
	threadID string
	gen      int
	pending  content.Raw
	closed   bool

	ctx        context.Context
	cancel     context.CancelFunc
	cancelTurn context.CancelFunc

	onAssistant func(timeline.Message)
	onCleared   func()
}

func New(b Backend, ids IdentitySource, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		backend:  b,
		ids:      ids,
		opts:     opts,
		timeline: timeline.New(),
		anim:     animator.New(opts.TypingInterval),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnAssistantMessage registers fn to run once for every assistant message
// appended to the timeline, typing or final.
func (s *Session) OnAssistantMessage(fn func(timeline.Message)) {
	s.onAssistant = fn
}

// OnCleared registers fn to run whenever the history is cleared.
func (s *Session) OnCleared(fn func()) {
	s.onCleared = fn
}

func (s *Session) State() State { return s.state }

func (s *Session) Timeline() *timeline.Timeline { return s.timeline }

// ThreadID returns the backend thread reference, if one was assigned.
func (s *Session) ThreadID() (string, bool) {
	return s.threadID, s.threadID != ""
}

// Typing returns the revealed part of the reply being typed.
func (s *Session) Typing() string {
	if s.state != TypingReply {
		return ""
	}
	return s.anim.Revealed()
}

// Busy reports whether a submission would be rejected with ErrBusy.
func (s *Session) Busy() bool {
	return s.state == AwaitingResponse || s.state == TypingReply
}

// Submit appends a user turn and returns the command querying the backend.
func (s *Session) Submit(text string) (tea.Cmd, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankInput
	}
	if s.Busy() {
		return nil, ErrBusy
	}

	if _, err := s.timeline.Append(timeline.Message{Role: timeline.RoleUser, Content: content.Text(text)}); err != nil {
		return nil, err
	}

	req := backend.QueryRequest{Text: text, UserID: s.userID()}
	if s.threadID != "" {
		thread := s.threadID
		req.ThreadID = &thread
	}

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelTurn = cancel
	s.setState(AwaitingResponse)

	b := s.backend
	return func() tea.Msg {
		reply, err := b.Query(ctx, req)
		return replyMsg{gen: gen, reply: reply, err: err}
	}, nil
}

// ClearHistory empties the conversation locally right away and returns the
// command asking the backend to forget it. Any reply in flight is dropped.
func (s *Session) ClearHistory() tea.Cmd {
	if s.closed {
		return nil
	}
	userID := s.userID()

	s.abortTurn()
	s.timeline.Clear()
	if s.opts.ResetThreadOnClear {
		s.threadID = ""
	}
	s.setState(Idle)
	if s.onCleared != nil {
		s.onCleared()
	}

	b, ctx := s.backend, s.ctx
	return func() tea.Msg {
		return clearedMsg{err: b.ClearHistory(ctx, userID)}
	}
}

// Close tears the session down. Late replies and ticks are ignored and any
// request still running is cancelled.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.abortTurn()
	s.closed = true
	s.cancel()
}

// Update feeds a message to the session and returns follow-up work.
// Messages the session does not own are ignored.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case replyMsg:
		return s.handleReply(msg)
	case animator.TickMsg:
		if s.closed {
			return nil
		}
		return s.anim.Update(msg)
	case animator.FinalizedMsg:
		s.handleFinalized(msg)
	case clearedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("failed to clear chat history")
		}
	}
	return nil
}

func (s *Session) handleReply(msg replyMsg) tea.Cmd {
	if s.closed || msg.gen != s.gen || s.state != AwaitingResponse {
		log.Debug().Int("gen", msg.gen).Msg("dropping stale reply")
		return nil
	}
	s.cancelTurn = nil

	if msg.err != nil {
		log.Warn().Err(msg.err).Str("state", s.state.String()).Msg("chat query failed")
		s.setState(ShowingError)
		s.appendAssistant(timeline.Message{
			Role:    timeline.RoleAssistant,
			Content: content.Text(ErrorText(msg.err)),
		})
		s.setState(Idle)
		return nil
	}

	if msg.reply.ThreadID != "" {
		s.threadID = msg.reply.ThreadID
	}
	reply := msg.reply.Content
	if reply.IsEmpty() {
		reply = content.Text(NoResponseText)
	}
	s.pending = reply

	s.appendAssistant(timeline.Message{Role: timeline.RoleAssistant, State: timeline.Typing})
	s.setState(TypingReply)

	cmd, err := s.anim.Start(render.PlainText(reply))
	if err != nil {
		// A reveal left over from an aborted turn; replace it.
		s.anim.Stop()
		cmd, _ = s.anim.Start(render.PlainText(reply))
	}
	return cmd
}

func (s *Session) handleFinalized(msg animator.FinalizedMsg) {
	if s.closed || s.state != TypingReply || !s.anim.Owns(msg) {
		return
	}
	s.timeline.FinalizeLastTyping(s.pending)
	s.pending = content.Raw{}
	s.setState(Idle)
}

func (s *Session) appendAssistant(m timeline.Message) {
	appended, err := s.timeline.Append(m)
	if err != nil {
		log.Error().Err(err).Msg("failed to append assistant message")
		return
	}
	if s.onAssistant != nil {
		s.onAssistant(appended)
	}
}

// abortTurn invalidates whatever the current turn still has scheduled.
func (s *Session) abortTurn() {
	s.gen++
	if s.cancelTurn != nil {
		s.cancelTurn()
		s.cancelTurn = nil
	}
	s.anim.Stop()
	s.pending = content.Raw{}
}

func (s *Session) setState(next State) {
	if next == s.state {
		return
	}
	log.Debug().Str("from", s.state.String()).Str("state", next.String()).Msg("session state")
	s.state = next
}

func (s *Session) userID() string {
	if s.ids == nil {
		return ""
	}
	return s.ids.GetOrCreate(s.ctx).String()
}
