package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"window-counter/backend/internal/domain/quote"
)

// QuoteStore keeps quote documents in the quotes table.
type QuoteStore struct {
	db *DB
}

func NewQuoteStore(db *DB) *QuoteStore {
	return &QuoteStore{db: db}
}

const quoteColumns = `id, name, line_items::text, total_cost::text, owner_id, saved_at`

func (s *QuoteStore) Create(ctx context.Context, collection string, q quote.Quote) (quote.Quote, error) {
	items, err := json.Marshal(quote.CloneItems(q.LineItems))
	if err != nil {
		return quote.Quote{}, fmt.Errorf("encode line items: %w", err)
	}
	err = s.db.Pool.QueryRow(ctx,
		`INSERT INTO quotes (collection, name, line_items, total_cost, owner_id)
		 VALUES ($1, $2, $3::text::jsonb, $4::text::numeric, $5)
		 RETURNING id, saved_at`,
		collection, q.Name, string(items), q.TotalCost.String(), q.OwnerID,
	).Scan(&q.ID, &q.SavedAt)
	if err != nil {
		return quote.Quote{}, err
	}
	q.LineItems = quote.CloneItems(q.LineItems)
	return q, nil
}

// List returns the collection in insertion order; ordering for display is
// left to the caller.
func (s *QuoteStore) List(ctx context.Context, collection, ownerID string) ([]quote.Quote, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes
		 WHERE collection = $1 AND ($2::text = '' OR owner_id = $2)
		 ORDER BY saved_at, id`,
		collection, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []quote.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (s *QuoteStore) Get(ctx context.Context, collection, id string) (quote.Quote, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return quote.Quote{}, quote.ErrNotFound
	}
	return q, err
}

func (s *QuoteStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM quotes WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quote.ErrNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (quote.Quote, error) {
	var (
		q            quote.Quote
		items, total string
	)
	if err := row.Scan(&q.ID, &q.Name, &items, &total, &q.OwnerID, &q.SavedAt); err != nil {
		return quote.Quote{}, err
	}
	q.LineItems = decodeLineItems(items)
	cost, err := decimal.NewFromString(total)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("decode total cost of %s: %w", q.ID, err)
	}
	q.TotalCost = cost
	return q, nil
}

// decodeLineItems reads a stored snapshot. Anything that is not a valid list
// of line items loads as an empty list.
func decodeLineItems(raw string) []quote.WindowType {
	var items []quote.WindowType
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil || !quote.ValidSnapshot(items) {
		return []quote.WindowType{}
	}
	return items
}
