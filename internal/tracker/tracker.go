// Package tracker ties the catalog, the retailer scrapers, the history store
// and the chart renderer together.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"pricetracker/internal/assert"
	"pricetracker/internal/catalog"
	"pricetracker/internal/chart"
	"pricetracker/internal/components/chrono"
	"pricetracker/internal/components/telemetry"
	"pricetracker/internal/fetch"
	"pricetracker/internal/history"
)

const (
	report_tracker_track = "tracker.track"
	report_tracker_saved = "tracker.saved"
)

// Scrapers resolves the scraper responsible for a seller.
type Scrapers interface {
	Scraper(seller string) fetch.Scraper
}

type Options struct {
	Catalog  catalog.Catalog
	Scrapers Scrapers
	Store    history.Store
	Clock    chrono.API
	// ChartDir is where charts are written.
	ChartDir string
	// Out receives the messages shown to the user.
	Out io.Writer
	Tel telemetry.API
}

type Tracker struct {
	catalog  catalog.Catalog
	scrapers Scrapers
	store    history.Store
	clock    chrono.API
	chartDir string
	out      io.Writer
	tel      telemetry.API
}

func New(opts Options) Tracker {
	assert.NotNil(opts.Scrapers)
	assert.NotNil(opts.Store)
	assert.NotNil(opts.Clock)
	assert.NotNil(opts.Out)
	assert.NotNil(opts.Tel)

	return Tracker{
		catalog:  opts.Catalog,
		scrapers: opts.Scrapers,
		store:    opts.Store,
		clock:    opts.Clock,
		chartDir: opts.ChartDir,
		out:      opts.Out,
		tel:      telemetry.NewScopedAPI("tracker", opts.Tel),
	}
}

func (t Tracker) Catalog() catalog.Catalog {
	return t.catalog
}

// Save appends one observation for the product, stamped with the current time.
func (t Tracker) Save(ctx context.Context, productID, seller string, listing fetch.Listing, url string) error {
	return t.store.Append(ctx, productID, history.Observation{
		Timestamp: t.clock.Now(),
		Seller:    seller,
		Price:     listing.Price,
		Title:     listing.Title,
		URL:       url,
	})
}

// Track fetches the product from each of its sellers in turn and saves every
// listing that could be read. Sellers that fail are skipped. It returns the
// number of observations saved.
func (t Tracker) Track(ctx context.Context, productID string) (int, error) {
	product, err := t.catalog.Lookup(productID)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, seller := range product.Sellers() {
		url := product.URLs[seller]
		listing, ok := t.scrapers.Scraper(seller).GetPrice(ctx, url)
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}
		if !ok {
			t.tel.ReportWarning(report_tracker_track, "no listing", productID, seller)
			fmt.Fprintf(t.out, "Could not get a price for %s from %s\n", productID, seller)
			continue
		}

		err = t.Save(ctx, productID, seller, listing, url)
		if err != nil {
			return saved, fmt.Errorf("save %s/%s: %w", productID, seller, err)
		}
		saved++
		fmt.Fprintf(t.out, "%s: %s (%s)\n", seller, listing.Price, listing.Title)
	}

	t.tel.ReportCount(report_tracker_saved, int64(saved))
	return saved, nil
}

// ChartPath is where the chart of a product is written.
func (t Tracker) ChartPath(productID string) string {
	return filepath.Join(t.chartDir, chart.HistoryFile(productID))
}

// PlotHistory renders the product's history and returns the chart's path.
// When there is no history a message is printed instead and the path is empty.
func (t Tracker) PlotHistory(ctx context.Context, productID string) (string, error) {
	observations, err := t.store.Load(ctx, productID)
	if errors.Is(err, history.ErrNoHistory) {
		fmt.Fprintf(t.out, "No price data found for %s\n", productID)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(observations) == 0 {
		fmt.Fprintf(t.out, "No price data available for %s\n", productID)
		return "", nil
	}

	name := productID
	product, ok := t.catalog.Get(productID)
	if ok && product.Name != "" {
		name = product.Name
	}

	path := t.ChartPath(productID)
	err = chart.Render(path, fmt.Sprintf("Price History - %s", name), chart.BuildSeries(observations))
	if err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "Plot saved to %s\n", path)
	return path, nil
}
