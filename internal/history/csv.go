package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PricesFile is the name of a product's history file.
func PricesFile(productID string) string {
	return fmt.Sprintf("%s_prices.csv", productID)
}

// CSVStore keeps one CSV file per product inside a directory. Files start with
// a header row and are only ever appended to.
type CSVStore struct {
	dir string
}

func NewCSVStore(dir string) CSVStore {
	return CSVStore{dir: dir}
}

func (s CSVStore) Path(productID string) string {
	return filepath.Join(s.dir, PricesFile(productID))
}

func (s CSVStore) Append(_ context.Context, productID string, obs Observation) error {
	err := ValidateProductID(productID)
	if err != nil {
		return err
	}
	err = os.MkdirAll(s.dir, 0755)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(productID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		err = w.Write(Columns)
		if err != nil {
			return err
		}
	}
	err = w.Write(obs.Record())
	if err != nil {
		return err
	}
	w.Flush()
	err = w.Error()
	if err != nil {
		return err
	}
	return f.Close()
}

func (s CSVStore) Load(_ context.Context, productID string) ([]Observation, error) {
	err := ValidateProductID(productID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(productID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return []Observation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	out := []Observation{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)

		ts, err := ParseTimestamp(record[index["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", PricesFile(productID), line, err)
		}
		out = append(out, Observation{
			Timestamp: ts,
			Seller:    record[index["seller"]],
			Price:     record[index["price"]],
			Title:     record[index["title"]],
			URL:       record[index["url"]],
		})
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range Columns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", name, header)
		}
	}
	return index, nil
}
