// Package history persists price observations as an append-only log per
// product.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoHistory is returned by Load when nothing was ever recorded for a product.
var ErrNoHistory = errors.New("no price history")

// TimestampLayout is ISO-8601 local time with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// layouts accepted when reading, a fractional second is optional for all of them.
var layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Columns is the column order of a history record.
var Columns = []string{"timestamp", "seller", "price", "title", "url"}

// Observation is a single recorded price, it is never modified once appended.
type Observation struct {
	Timestamp time.Time
	Seller    string
	Price     string
	Title     string
	URL       string
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp reads timestamps written by FormatTimestamp. Timestamps
// without an offset are read as local time, RFC 3339 is accepted as well.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// Record returns the observation's fields in Columns order.
func (o Observation) Record() []string {
	return []string{
		FormatTimestamp(o.Timestamp),
		o.Seller,
		o.Price,
		o.Title,
		o.URL,
	}
}

// Store is an append-only observation log keyed by product id.
type Store interface {
	Append(ctx context.Context, productID string, obs Observation) error
	// Load returns every observation of the product in the order it was
	// appended, or ErrNoHistory.
	Load(ctx context.Context, productID string) ([]Observation, error)
}

// ValidateProductID rejects ids that cannot name a history file.
func ValidateProductID(id string) error {
	if id == "" {
		return errors.New("empty product id")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("product id %q cannot be used as a file name", id)
	}
	return nil
}
