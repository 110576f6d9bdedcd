// Package editor holds the quote being built: an ordered list of window
// types with counts. An Editor is not safe for concurrent use; callers
// serialize events on it.
package editor

import (
	"github.com/shopspring/decimal"

	"window-counter/backend/internal/domain/quote"
)

// AddForm is the "create new window type" panel. Name and Price hold what
// the user typed on the last rejected submit.
type AddForm struct {
	Expanded bool   `json:"expanded"`
	Name     string `json:"name"`
	Price    string `json:"price"`
}

// EditSession is the working copy of one item while the edit dialog is open.
type EditSession struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type Editor struct {
	items   []quote.WindowType
	newID   func() string
	form    AddForm
	edit    *EditSession
	dragged string
}

func New(newID func() string, seed []quote.WindowType) *Editor {
	return &Editor{items: quote.CloneItems(seed), newID: newID}
}

func DefaultWindowTypes() []quote.WindowType {
	return []quote.WindowType{
		{ID: "sash", Name: "Sash Window"},
		{ID: "fw-small", Name: "FW (Small)"},
		{ID: "fw-medium", Name: "FW (Medium)"},
		{ID: "fw-large", Name: "FW (Large)"},
		{ID: "screen", Name: "Screen"},
	}
}

func (e *Editor) Items() []quote.WindowType { return quote.CloneItems(e.items) }

func (e *Editor) TotalCost() decimal.Decimal { return quote.Total(e.items) }

func (e *Editor) index(id string) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) AddForm() AddForm { return e.form }

func (e *Editor) OpenAddForm() { e.form.Expanded = true }

func (e *Editor) CancelAddForm() { e.form = AddForm{} }

// Add appends a new window type with count 0.
func (e *Editor) Add(name, price string) (quote.WindowType, error) {
	n, err := quote.ValidateWindowName(name)
	if err != nil {
		e.form.Name, e.form.Price = name, price
		return quote.WindowType{}, err
	}
	p, err := quote.ParsePrice(price)
	if err != nil {
		e.form.Name, e.form.Price = name, price
		return quote.WindowType{}, err
	}
	wt := quote.WindowType{ID: e.newID(), Name: n, UnitPrice: p}
	e.items = append(e.items, wt)
	e.form = AddForm{}
	return wt, nil
}

// Increment and Decrement ignore ids that are not in the list.
func (e *Editor) Increment(id string) {
	if i := e.index(id); i >= 0 {
		e.items[i].Count++
	}
}

func (e *Editor) Decrement(id string) {
	if i := e.index(id); i >= 0 && e.items[i].Count > 0 {
		e.items[i].Count--
	}
}

func (e *Editor) OpenEdit(id string) (EditSession, bool) {
	i := e.index(id)
	if i < 0 {
		return EditSession{}, false
	}
	e.edit = &EditSession{
		ID:    id,
		Name:  e.items[i].Name,
		Price: e.items[i].UnitPrice.StringFixed(2),
	}
	return *e.edit, true
}

func (e *Editor) Editing() (EditSession, bool) {
	if e.edit == nil {
		return EditSession{}, false
	}
	return *e.edit, true
}

// SaveEdit replaces name and price of the edited item in place. A rejected
// value keeps the session open with what the user typed.
func (e *Editor) SaveEdit(name, price string) error {
	if e.edit == nil {
		return nil
	}
	n, err := quote.ValidateWindowName(name)
	if err != nil {
		e.edit.Name, e.edit.Price = name, price
		return err
	}
	p, err := quote.ParsePrice(price)
	if err != nil {
		e.edit.Name, e.edit.Price = name, price
		return err
	}
	if i := e.index(e.edit.ID); i >= 0 {
		e.items[i].Name = n
		e.items[i].UnitPrice = p
	}
	e.edit = nil
	return nil
}

func (e *Editor) CancelEdit() { e.edit = nil }

func (e *Editor) Delete(id string) bool {
	i := e.index(id)
	if i < 0 {
		return false
	}
	e.items = append(e.items[:i:i], e.items[i+1:]...)
	if e.edit != nil && e.edit.ID == id {
		e.edit = nil
	}
	if e.dragged == id {
		e.dragged = ""
	}
	return true
}

// MoveItem takes the item at from out of the list and reinserts it at to.
// to is clamped into range.
func (e *Editor) MoveItem(from, to int) bool {
	n := len(e.items)
	if from < 0 || from >= n {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to >= n {
		to = n - 1
	}
	if from == to {
		return false
	}

	moved := e.items[from]
	next := make([]quote.WindowType, 0, n)
	next = append(next, e.items[:from]...)
	next = append(next, e.items[from+1:]...)
	next = append(next[:to], append([]quote.WindowType{moved}, next[to:]...)...)
	e.items = next
	return true
}

// Reorder moves the dragged item to the position the target occupied.
func (e *Editor) Reorder(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}
	from, to := e.index(draggedID), e.index(targetID)
	if from < 0 || to < 0 {
		return false
	}
	return e.MoveItem(from, to)
}

func (e *Editor) PickUp(id string) bool {
	if e.index(id) < 0 {
		return false
	}
	e.dragged = id
	return true
}

func (e *Editor) Dragging() (string, bool) { return e.dragged, e.dragged != "" }

// Drop ends the gesture on targetID. The picked-up item is released even
// when nothing moves.
func (e *Editor) Drop(targetID string) bool {
	dragged := e.dragged
	e.dragged = ""
	if dragged == "" {
		return false
	}
	return e.Reorder(dragged, targetID)
}

func (e *Editor) CancelDrag() { e.dragged = "" }

// Replace swaps the whole list, as when a saved quote is loaded. A malformed
// list loads as empty. Any open edit or drag refers to the old list and is
// dropped.
func (e *Editor) Replace(items []quote.WindowType) {
	if !quote.ValidSnapshot(items) {
		items = nil
	}
	e.items = quote.CloneItems(items)
	e.edit = nil
	e.dragged = ""
}
