// Package workspace ties one visitor's editor, notice channel, identity and
// quote gateway together. Every event on a workspace is applied in arrival
// order; calls to the quote store run without holding the workspace lock.
package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"window-counter/backend/internal/domain/editor"
	"window-counter/backend/internal/domain/identity"
	"window-counter/backend/internal/domain/notice"
	"window-counter/backend/internal/domain/quote"
	"window-counter/backend/internal/shared/apperr"
)

const (
	msgConfirmDeleteItem  = "Are you sure you want to delete this window type?"
	msgConfirmDeleteQuote = "Are you sure you want to delete this saved quote?"
	msgQuoteSaved         = "Quote saved successfully!"
	msgQuoteDeleted       = "Quote deleted successfully!"
)

type Workspace struct {
	ID string

	mu      sync.Mutex
	editor  *editor.Editor
	notices notice.Channel
	saved   []quote.Quote

	gate    *identity.Gate
	gateway *quote.Gateway
	log     *zap.Logger
}

func New(id string, ed *editor.Editor, gate *identity.Gate, gw *quote.Gateway, log *zap.Logger) *Workspace {
	if log == nil {
		log = zap.NewNop()
	}
	ws := &Workspace{
		ID:      id,
		editor:  ed,
		gate:    gate,
		gateway: gw,
		log:     log.With(zap.String("workspace_id", id)),
	}
	gate.Subscribe(ws.signedIn)
	return ws
}

// State is a point-in-time view of the workspace for rendering.
type State struct {
	ID          string              `json:"id"`
	Items       []quote.WindowType  `json:"items"`
	TotalCost   decimal.Decimal     `json:"total_cost"`
	AddForm     editor.AddForm      `json:"add_form"`
	Edit        *editor.EditSession `json:"edit,omitempty"`
	Dragging    string              `json:"dragging,omitempty"`
	Notice      *notice.Notice      `json:"notice,omitempty"`
	SavedQuotes []quote.Quote       `json:"saved_quotes"`
	Saving      bool                `json:"saving"`
	Loading     bool                `json:"loading"`
	AuthReady   bool                `json:"auth_ready"`
	Identity    *identity.Identity  `json:"identity,omitempty"`
}

func (ws *Workspace) State() State {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	st := State{
		ID:          ws.ID,
		Items:       ws.editor.Items(),
		TotalCost:   ws.editor.TotalCost(),
		AddForm:     ws.editor.AddForm(),
		SavedQuotes: append([]quote.Quote{}, ws.saved...),
		Saving:      ws.gateway.Saving(),
		Loading:     ws.gateway.Loading(),
		AuthReady:   ws.gate.Ready(),
	}
	if s, ok := ws.editor.Editing(); ok {
		st.Edit = &s
	}
	st.Dragging, _ = ws.editor.Dragging()
	if n, ok := ws.notices.Current(); ok {
		st.Notice = &n
	}
	if id, err := ws.gate.Current(); err == nil {
		st.Identity = &id
	}
	return st
}

// authenticate resolves the identity gate. The outcome reaches the user
// through signedIn before the gate reports ready.
func (ws *Workspace) authenticate(ctx context.Context, p identity.Provider, token string) {
	_ = ws.gate.Resolve(ctx, p, token)
}

func (ws *Workspace) signedIn(id identity.Identity, err error) {
	if err != nil {
		ws.log.Error("authentication failed", zap.Error(err))
		ws.mu.Lock()
		ws.notices.Show("Authentication error: " + err.Error())
		ws.mu.Unlock()
		return
	}
	ws.log.Info("workspace authenticated", zap.String("user_id", id.UserID), zap.Bool("anonymous", id.Anonymous))
}

func (ws *Workspace) AwaitIdentity(ctx context.Context) error { return ws.gate.Wait(ctx) }

// Notify shows the user-facing message of err and returns err.
func (ws *Workspace) Notify(err error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.fail(err)
}

// fail shows err to the user. Callers hold ws.mu.
func (ws *Workspace) fail(err error) error {
	ws.notices.Show(apperr.PublicMessage(err))
	return err
}

// ---------------------------------------------------------------------------
// Editor events
// ---------------------------------------------------------------------------

func (ws *Workspace) OpenAddForm() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.OpenAddForm()
}

func (ws *Workspace) CancelAddForm() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.CancelAddForm()
}

func (ws *Workspace) AddWindowType(name, price string) (quote.WindowType, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	wt, err := ws.editor.Add(name, price)
	if err != nil {
		return quote.WindowType{}, ws.fail(err)
	}
	return wt, nil
}

func (ws *Workspace) Increment(id string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.Increment(id)
}

func (ws *Workspace) Decrement(id string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.Decrement(id)
}

func (ws *Workspace) OpenEdit(id string) (editor.EditSession, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	s, ok := ws.editor.OpenEdit(id)
	if !ok {
		return editor.EditSession{}, apperr.NotFoundErr("Window type not found.")
	}
	return s, nil
}

func (ws *Workspace) SaveEdit(name, price string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.editor.SaveEdit(name, price); err != nil {
		return ws.fail(err)
	}
	return nil
}

func (ws *Workspace) CancelEdit() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.CancelEdit()
}

// RequestDeleteWindowType asks the user to confirm; nothing is removed until
// Resolve accepts.
func (ws *Workspace) RequestDeleteWindowType(id string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.notices.Ask(msgConfirmDeleteItem, notice.Confirmation{Kind: notice.DeleteWindowType, TargetID: id})
}

func (ws *Workspace) Reorder(draggedID, targetID string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.editor.Reorder(draggedID, targetID)
}

func (ws *Workspace) MoveItem(from, to int) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.editor.MoveItem(from, to)
}

func (ws *Workspace) PickUp(id string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.editor.PickUp(id)
}

func (ws *Workspace) Drop(targetID string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.editor.Drop(targetID)
}

func (ws *Workspace) CancelDrag() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.editor.CancelDrag()
}

// ---------------------------------------------------------------------------
// Quote events
// ---------------------------------------------------------------------------

func (ws *Workspace) SaveQuote(ctx context.Context, name string) (quote.Quote, error) {
	ws.mu.Lock()
	items := ws.editor.Items()
	ws.mu.Unlock()

	saved, err := ws.gateway.Save(ctx, name, items)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err != nil {
		return quote.Quote{}, ws.fail(err)
	}
	ws.notices.Show(msgQuoteSaved)
	return saved, nil
}

func (ws *Workspace) ListQuotes(ctx context.Context) ([]quote.Quote, error) {
	quotes, err := ws.gateway.List(ctx)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err != nil {
		return nil, ws.fail(err)
	}
	ws.saved = quotes
	return append([]quote.Quote{}, quotes...), nil
}

// Quote returns a saved quote, from the last listing when possible.
func (ws *Workspace) Quote(ctx context.Context, quoteID string) (quote.Quote, error) {
	ws.mu.Lock()
	for _, q := range ws.saved {
		if q.ID == quoteID {
			ws.mu.Unlock()
			return q, nil
		}
	}
	ws.mu.Unlock()
	return ws.gateway.Get(ctx, quoteID)
}

func (ws *Workspace) RequestLoadQuote(ctx context.Context, quoteID string) error {
	q, err := ws.Quote(ctx, quoteID)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err != nil {
		return ws.fail(err)
	}
	msg := fmt.Sprintf("Are you sure you want to load %q? This will replace your current quote.", q.Name)
	ws.notices.Ask(msg, notice.Confirmation{Kind: notice.LoadQuote, TargetID: q.ID, Quote: &q})
	return nil
}

func (ws *Workspace) RequestDeleteQuote(quoteID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.notices.Ask(msgConfirmDeleteQuote, notice.Confirmation{Kind: notice.DeleteQuote, TargetID: quoteID})
}

// ---------------------------------------------------------------------------
// Notices
// ---------------------------------------------------------------------------

// Outcome reports what Resolve did.
type Outcome struct {
	Kind    notice.Kind   `json:"kind,omitempty"`
	Applied bool          `json:"applied"`
	Quotes  []quote.Quote `json:"quotes,omitempty"`
}

// Resolve answers the visible notice. Declining, or answering a notice that
// asked nothing, only dismisses it.
func (ws *Workspace) Resolve(ctx context.Context, accept bool) (Outcome, error) {
	ws.mu.Lock()
	conf, ok := ws.notices.Take()
	if !ok || !accept {
		ws.mu.Unlock()
		return Outcome{Kind: conf.Kind}, nil
	}

	switch conf.Kind {
	case notice.DeleteWindowType:
		applied := ws.editor.Delete(conf.TargetID)
		ws.mu.Unlock()
		return Outcome{Kind: conf.Kind, Applied: applied}, nil

	case notice.LoadQuote:
		var items []quote.WindowType
		if conf.Quote != nil {
			items = conf.Quote.LineItems
		}
		ws.editor.Replace(items)
		ws.mu.Unlock()
		ws.log.Info("quote loaded", zap.String("quote_id", conf.TargetID))
		return Outcome{Kind: conf.Kind, Applied: true}, nil

	case notice.DeleteQuote:
		ws.mu.Unlock()
		return ws.deleteQuote(ctx, conf.TargetID)
	}

	ws.mu.Unlock()
	return Outcome{Kind: conf.Kind}, nil
}

func (ws *Workspace) deleteQuote(ctx context.Context, quoteID string) (Outcome, error) {
	out := Outcome{Kind: notice.DeleteQuote}
	err := ws.gateway.Delete(ctx, quoteID)

	ws.mu.Lock()
	if err != nil {
		err = ws.fail(err)
		ws.mu.Unlock()
		return out, err
	}
	ws.notices.Show(msgQuoteDeleted)
	ws.mu.Unlock()
	out.Applied = true

	quotes, err := ws.ListQuotes(ctx)
	if err != nil {
		return out, err
	}
	out.Quotes = quotes
	return out, nil
}
