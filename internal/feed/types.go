// Package feed fetches and parses the arXiv "new submissions" listing.
package feed

import "fmt"

// Entry is one submission scraped from the listing page.
// The ID is the archive-assigned identifier from the abstract URL and is the
// dedupe key; everything else is display material.
type Entry struct {
	ID       string
	Title    string
	Authors  []string
	Comments string
	Abstract string
	AbsURL   string
	PDFURL   string
}

// FetchError reports a failed retrieval or parse of the listing page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
