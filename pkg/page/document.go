package page

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
)

// Document parses a fetched response body into a goquery document for CSS
// selection inside page objects.
func Document(resp *fetch.Response) (*goquery.Document, error) {
	if resp == nil || !resp.Fetched {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot parse an unfetched response")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing HTML from %s", resp.URL)
	}
	return doc, nil
}
