package quote

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"window-counter/backend/internal/shared/apperr"
)

// WindowType is one line item of a quote: a kind of window, its unit price
// and how many of them the job needs.
type WindowType struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Count     int             `json:"count"`
}

func (w WindowType) LineTotal() decimal.Decimal {
	return w.UnitPrice.Mul(decimal.NewFromInt(int64(w.Count)))
}

type Quote struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	LineItems []WindowType    `json:"lineItems"`
	TotalCost decimal.Decimal `json:"totalCost"`
	OwnerID   string          `json:"ownerId"`
	SavedAt   time.Time       `json:"timestamp"`
}

// Total sums unit price times count over items.
func Total(items []WindowType) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// CloneItems returns a copy that shares nothing with items. A nil input
// yields an empty, non-nil slice.
func CloneItems(items []WindowType) []WindowType {
	out := make([]WindowType, len(items))
	copy(out, items)
	return out
}

// ValidSnapshot reports whether items can be loaded into an editor: ids are
// present and unique, names are not blank, prices and counts are not
// negative.
func ValidSnapshot(items []WindowType) bool {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || seen[it.ID] || strings.TrimSpace(it.Name) == "" {
			return false
		}
		if it.UnitPrice.IsNegative() || it.Count < 0 {
			return false
		}
		seen[it.ID] = true
	}
	return true
}

const (
	msgWindowNameEmpty = "Window name cannot be empty."
	msgQuoteNameEmpty  = "Quote name cannot be empty."
	msgPriceInvalid    = "Price must be a valid non-negative number."
)

func ValidateWindowName(name string) (string, error) {
	return nonEmpty(name, msgWindowNameEmpty)
}

func ValidateQuoteName(name string) (string, error) {
	return nonEmpty(name, msgQuoteNameEmpty)
}

func nonEmpty(s, msg string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.ValidationErr(msg)
	}
	return s, nil
}

// priceLiteral is a plain decimal: digits with an optional fraction, no sign
// and no exponent.
var priceLiteral = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// ParsePrice reads a user-typed unit price.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !priceLiteral.MatchString(raw) {
		return decimal.Zero, apperr.ValidationErr(msgPriceInvalid)
	}
	p, err := decimal.NewFromString(raw)
	if err != nil || p.IsNegative() {
		return decimal.Zero, apperr.ValidationErr(msgPriceInvalid)
	}
	return p, nil
}
