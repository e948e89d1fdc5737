package retailers

import (
	"errors"
	"pricetracker/internal/fetch"
)

const (
	KindSample    = "sample"
	SampleBaseURL = "https://example.com"
)

var errNoDocument = errors.New("page has no parsed document")

// Sample is the extractor of the demonstration retailer. It checks the page
// parsed and returns a fixed listing, real retailers read it from the document.
func Sample(page fetch.Page) (fetch.Listing, error) {
	if page.Document == nil {
		return fetch.Listing{}, errNoDocument
	}
	return fetch.Listing{
		Price: "R$ 1.234,56",
		Title: "Sample Product Title",
	}, nil
}
