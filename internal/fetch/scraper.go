package fetch

import (
	"context"
	"errors"
	"fmt"
	"pricetracker/internal/assert"
	"pricetracker/internal/components/telemetry"
	"pricetracker/lib/htmlutil"
)

const report_scraper_get_price = "scraper.get-price"

// Listing is what an extractor pulls out of a product page. Price is kept as
// the raw text shown on the page, currency symbol and separators included.
type Listing struct {
	Price string
	Title string
}

// Fetcher retrieves and parses a page, *Session is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Extractor is the per-retailer parsing rule applied to a fetched page.
type Extractor interface {
	Extract(page Page) (Listing, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(page Page) (Listing, error)

func (f ExtractorFunc) Extract(page Page) (Listing, error) {
	return f(page)
}

var ErrNoPrice = errors.New("no price on page")

// Scraper combines a Fetcher with a retailer's Extractor.
type Scraper struct {
	name      string
	baseURL   string
	fetcher   Fetcher
	extractor Extractor
	tel       telemetry.API
}

func NewScraper(name, baseURL string, fetcher Fetcher, extractor Extractor, tel telemetry.API) Scraper {
	assert.NotEmptyStr(name)
	assert.NotNil(fetcher)
	assert.NotNil(extractor)
	assert.NotNil(tel)

	return Scraper{
		name:      name,
		baseURL:   baseURL,
		fetcher:   fetcher,
		extractor: extractor,
		tel:       telemetry.NewScopedAPI(name, tel),
	}
}

func (s Scraper) Name() string {
	return s.name
}

func (s Scraper) BaseURL() string {
	return s.baseURL
}

func (s Scraper) String() string {
	return fmt.Sprintf("%s(base_url='%s')", s.name, s.baseURL)
}

// GetPrice fetches `url` and extracts its listing. Failures are reported
// through telemetry and never returned, ok is false when there is no listing.
func (s Scraper) GetPrice(ctx context.Context, url string) (listing Listing, ok bool) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.tel.ReportBroken(report_scraper_get_price, fmt.Errorf("fetch: %w", err), url)
		return Listing{}, false
	}

	listing, err = s.extractor.Extract(page)
	if err != nil {
		s.tel.ReportBroken(report_scraper_get_price, fmt.Errorf("extract: %w", err), url)
		return Listing{}, false
	}

	listing.Price = htmlutil.CleanText(listing.Price)
	listing.Title = htmlutil.CleanText(listing.Title)
	if listing.Price == "" {
		s.tel.ReportBroken(report_scraper_get_price, fmt.Errorf("extract: %w", ErrNoPrice), url)
		return Listing{}, false
	}
	return listing, true
}
