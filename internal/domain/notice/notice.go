package notice

import "window-counter/backend/internal/domain/quote"

type Kind string

const (
	DeleteWindowType Kind = "delete_window_type"
	LoadQuote        Kind = "load_quote"
	DeleteQuote      Kind = "delete_quote"
)

// Confirmation is an action waiting for the user's yes or no.
type Confirmation struct {
	Kind     Kind         `json:"kind"`
	TargetID string       `json:"target_id"`
	Quote    *quote.Quote `json:"quote,omitempty"`
}

type Notice struct {
	Message      string        `json:"message"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

// Channel shows at most one notice. A new notice replaces the visible one,
// including any confirmation it was waiting on.
type Channel struct {
	current *Notice
}

func (c *Channel) Show(msg string) {
	c.current = &Notice{Message: msg}
}

func (c *Channel) Ask(msg string, conf Confirmation) {
	c.current = &Notice{Message: msg, Confirmation: &conf}
}

func (c *Channel) Current() (Notice, bool) {
	if c.current == nil {
		return Notice{}, false
	}
	return *c.current, true
}

// Take clears the visible notice and hands back its confirmation, if any.
func (c *Channel) Take() (Confirmation, bool) {
	n := c.current
	c.current = nil
	if n == nil || n.Confirmation == nil {
		return Confirmation{}, false
	}
	return *n.Confirmation, true
}

func (c *Channel) Dismiss() { c.current = nil }
