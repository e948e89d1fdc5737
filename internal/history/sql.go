package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "embed"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps observations in a single table, rows are returned in
// insertion order.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates the schema if it does not exist yet.
func NewSQLStore(ctx context.Context, db *sql.DB) (SQLStore, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("apply schema: %w", err)
	}
	return SQLStore{db: db}, nil
}

func (s SQLStore) Append(ctx context.Context, productID string, obs Observation) error {
	err := ValidateProductID(productID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`insert into observation(product_id, timestamp, seller, price, title, url)
		values (?, ?, ?, ?, ?, ?)`,
		productID,
		FormatTimestamp(obs.Timestamp),
		obs.Seller,
		obs.Price,
		obs.Title,
		obs.URL,
	)
	return err
}

func (s SQLStore) Load(ctx context.Context, productID string) ([]Observation, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select timestamp, seller, price, title, url from observation
		where product_id = ?
		order by id`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var ts string
		var obs Observation
		err = rows.Scan(&ts, &obs.Seller, &obs.Price, &obs.Title, &obs.URL)
		if err != nil {
			return nil, err
		}
		obs.Timestamp, err = ParseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoHistory
	}
	return out, nil
}
