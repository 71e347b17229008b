package core

import "context"

// Scraper fetches a single page and returns its visible text.
// A fetch failure is reported as an error; a page with no text returns "" and a nil error.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}
