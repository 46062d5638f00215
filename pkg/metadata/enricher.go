package metadata

import (
	"context"

	"github.com/robinjoseph08/golib/logger"
)

// Lookup methods reported in Outcome.Method.
const (
	MethodISBN  = "isbn"
	MethodTitle = "title"
)

// Outcome describes how a record was enriched.
type Outcome struct {
	// Source is the provider that matched, or "" when none did.
	Source string
	// Method is MethodISBN, MethodTitle or "".
	Method string
}

// Matched reports whether any provider returned a result.
func (o *Outcome) Matched() bool {
	return o != nil && o.Source != ""
}

// Enricher fills in local metadata from external book providers, tried in
// order, and resolves a cover URL.
type Enricher struct {
	books     []BookProvider
	covers    CoverProvider
	coverSize CoverSize
}

// NewEnricher returns an Enricher. covers may be nil, in which case the
// cover URL only ever comes from a provider result.
func NewEnricher(books []BookProvider, covers CoverProvider, size CoverSize) *Enricher {
	return &Enricher{books: books, covers: covers, coverSize: size}
}

// Enrich looks local up by ISBN across every provider, then by title across
// every provider, stopping at the first non-empty result. Provider failures
// count as no result. With no match local is returned unchanged apart from
// the cover URL.
func (e *Enricher) Enrich(ctx context.Context, local *Record) (*Record, *Outcome) {
	outcome := &Outcome{}
	var remote *Record

	if local.ISBN != "" {
		remote = e.firstMatch(ctx, MethodISBN, local.ISBN, func(p BookProvider) (*Record, error) {
			return p.SearchByISBN(ctx, local.ISBN)
		}, outcome)
	}
	if remote == nil && local.Title != "" {
		remote = e.firstMatch(ctx, MethodTitle, local.Title, func(p BookProvider) (*Record, error) {
			return p.SearchByTitle(ctx, local.Title)
		}, outcome)
	}

	merged := overlay(local, remote)
	merged.CoverURL = e.coverURL(local, remote)
	return merged, outcome
}

func (e *Enricher) firstMatch(ctx context.Context, method, query string, lookup func(BookProvider) (*Record, error), outcome *Outcome) *Record {
	log := logger.FromContext(ctx)
	for _, p := range e.books {
		rec, err := lookup(p)
		if err != nil {
			log.Warn("metadata lookup failed", logger.Data{
				"provider": p.Name(),
				"method":   method,
				"query":    query,
				"error":    err.Error(),
			})
			continue
		}
		if rec.IsEmpty() {
			continue
		}
		if rec.Source == "" {
			rec.Source = p.Name()
		}
		outcome.Source = p.Name()
		outcome.Method = method
		return rec
	}
	return nil
}

// coverURL prefers a URL templated from the local ISBN, then whatever the
// provider result carried, then a URL templated from the provider's ISBN.
func (e *Enricher) coverURL(local, remote *Record) string {
	if e.covers != nil && local.ISBN != "" {
		if url := e.covers.CoverByISBN(local.ISBN, e.coverSize); url != "" {
			return url
		}
	}
	if remote == nil {
		return local.CoverURL
	}
	if remote.CoverURL != "" {
		return remote.CoverURL
	}
	if e.covers != nil && remote.ISBN != "" {
		return e.covers.CoverByISBN(remote.ISBN, e.coverSize)
	}
	return local.CoverURL
}
