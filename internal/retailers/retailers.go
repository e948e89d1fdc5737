// Package retailers binds seller identifiers to the scraper that knows how to
// read their product pages.
package retailers

import (
	"fmt"
	"pricetracker/internal/components/telemetry"
	"pricetracker/internal/fetch"
	"sort"
)

type kind struct {
	baseURL   string
	extractor fetch.Extractor
}

var kinds = map[string]kind{
	KindSample: {baseURL: SampleBaseURL, extractor: fetch.ExtractorFunc(Sample)},
}

// Binding configures the retailer behind a seller.
type Binding struct {
	Kind    string `json:"kind"`
	BaseURL string `json:"base_url"`
}

// Registry holds one scraper per configured seller. Sellers without a binding
// are served by the sample retailer.
type Registry struct {
	scrapers map[string]fetch.Scraper
	fallback fetch.Scraper
}

func NewRegistry(bindings map[string]Binding, fetcher fetch.Fetcher, tel telemetry.API) (Registry, error) {
	tel = telemetry.NewScopedAPI("retailers", tel)

	scrapers := make(map[string]fetch.Scraper, len(bindings))
	for seller, binding := range bindings {
		kindName := binding.Kind
		if kindName == "" {
			kindName = KindSample
		}
		k, ok := kinds[kindName]
		if !ok {
			return Registry{}, fmt.Errorf("seller %s: unknown retailer kind %q", seller, binding.Kind)
		}
		baseURL := binding.BaseURL
		if baseURL == "" {
			baseURL = k.baseURL
		}
		scrapers[seller] = fetch.NewScraper(seller, baseURL, fetcher, k.extractor, tel)
	}

	sample := kinds[KindSample]
	return Registry{
		scrapers: scrapers,
		fallback: fetch.NewScraper(KindSample, sample.baseURL, fetcher, sample.extractor, tel),
	}, nil
}

// Scraper returns the scraper bound to `seller`, or the sample scraper.
func (r Registry) Scraper(seller string) fetch.Scraper {
	s, ok := r.scrapers[seller]
	if ok {
		return s
	}
	return r.fallback
}

// Sellers lists the sellers with an explicit binding, sorted.
func (r Registry) Sellers() []string {
	out := make([]string, 0, len(r.scrapers))
	for seller := range r.scrapers {
		out = append(out, seller)
	}
	sort.Strings(out)
	return out
}
