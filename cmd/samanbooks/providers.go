package main

import (
	"github.com/samanbooks/samanbooks/pkg/config"
	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/samanbooks/samanbooks/pkg/metadata"
	"github.com/samanbooks/samanbooks/pkg/metadata/googlebooks"
	"github.com/samanbooks/samanbooks/pkg/metadata/openlibrary"
)

const (
	providerOpenLibrary = "openlibrary"
	providerGoogleBooks = "googlebooks"
)

// providers is the set of external sources configured for a run.
type providers struct {
	books   []metadata.BookProvider
	covers  metadata.CoverProvider
	authors metadata.AuthorProvider
}

// newProviders builds the book providers in the configured order. Covers
// come from the first configured provider. OpenLibrary is the only author
// source and is only wired when author enrichment is on.
func newProviders(cfg *config.Config) *providers {
	client := httputil.New(httputil.Options{
		Timeout:           cfg.ProviderTimeout,
		RequestsPerSecond: cfg.ProviderRequestsPerSecond,
		MaxRetries:        cfg.ProviderMaxRetries,
		UserAgent:         cfg.ProviderUserAgent,
	})

	p := &providers{}
	for _, name := range cfg.BookProviders {
		var cover metadata.CoverProvider
		switch name {
		case providerOpenLibrary:
			p.books = append(p.books, openlibrary.NewBookProvider(client, "", ""))
			cover = openlibrary.NewCoverProvider("")
		case providerGoogleBooks:
			p.books = append(p.books, googlebooks.NewBookProvider(client, "", cfg.GoogleBooksAPIKey))
			cover = googlebooks.NewCoverProvider("")
		default:
			continue
		}
		if p.covers == nil {
			p.covers = cover
		}
	}

	if cfg.EnrichAuthors {
		p.authors = openlibrary.NewAuthorProvider(client, "", "")
	}
	return p
}
