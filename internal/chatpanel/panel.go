// Package chatpanel maintains a single movie-scoped chat transcript and
// mediates one request/response exchange per user turn.
package chatpanel

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. The transcript is append-only.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	emptyReplyApology = "I am sorry, I could not generate a response right now."
	failureApology    = "Something went wrong while contacting the movie assistant. Please try again later."
)

// SendFunc delivers one user question to the assistant backend and returns
// the reply text. The bound movie context travels inside the implementation.
type SendFunc func(ctx context.Context, question string) (string, error)

type Config struct {
	// MovieTitle names the movie this panel is scoped to; it appears in the
	// seeded greeting.
	MovieTitle string
	Send       SendFunc
	// OnChange fires after every transcript mutation and on open, so the view
	// can auto-scroll to the latest message.
	OnChange func()
}

// Panel is the chat transcript state machine. At most one request is
// outstanding at a time; submissions while one is pending are rejected.
type Panel struct {
	mu       sync.Mutex
	send     SendFunc
	onChange func()

	messages []Message
	open     bool
	sending  bool
}

func New(cfg Config) *Panel {
	greeting := fmt.Sprintf(
		"Hi. I am Ovi, your MovieHub movie assistant. Ask me anything about %q such as plot, characters, themes, or interesting trivia.",
		cfg.MovieTitle,
	)
	return &Panel{
		send:     cfg.Send,
		onChange: cfg.OnChange,
		messages: []Message{{Role: RoleAssistant, Content: greeting}},
	}
}

// Send submits one user turn. It reports false without touching the
// transcript when the trimmed text is empty or a request is already in
// flight. The user message is appended optimistically; exactly one terminal
// assistant message follows, regardless of outcome.
func (p *Panel) Send(ctx context.Context, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	p.mu.Lock()
	if p.sending {
		p.mu.Unlock()
		return false
	}
	p.sending = true
	p.messages = append(p.messages, Message{Role: RoleUser, Content: trimmed})
	send := p.send
	p.mu.Unlock()
	p.notify()

	var reply string
	var err error
	if send != nil {
		reply, err = send(ctx, trimmed)
	}

	content := reply
	switch {
	case err != nil:
		content = failureApology
	case strings.TrimSpace(reply) == "":
		content = emptyReplyApology
	}

	p.mu.Lock()
	p.messages = append(p.messages, Message{Role: RoleAssistant, Content: content})
	p.sending = false
	p.mu.Unlock()
	p.notify()
	return true
}

// Open shows the panel; the transcript is untouched.
func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
	p.notify()
}

// Close hides the panel without clearing history.
func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Sending reports whether a request is in flight (the loading indicator).
func (p *Panel) Sending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sending
}

// Messages returns a copy of the transcript in order.
func (p *Panel) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *Panel) notify() {
	if p.onChange != nil {
		p.onChange()
	}
}
