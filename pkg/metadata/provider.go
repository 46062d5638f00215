package metadata

import "context"

// BookProvider looks books up in an external bibliographic source. A
// lookup with nothing to return yields a nil record (or empty slice) and a
// nil error. A source that failed yields a transport_failed error, which
// callers treat as no result.
type BookProvider interface {
	Name() string
	SearchByISBN(ctx context.Context, isbn string) (*Record, error)
	SearchByTitle(ctx context.Context, title string) (*Record, error)
	SearchByAuthor(ctx context.Context, author string) ([]*Record, error)
	SearchByQuery(ctx context.Context, query string) ([]*Record, error)
	GetWorkDetails(ctx context.Context, key string) (*WorkRecord, error)
	GetEditionDetails(ctx context.Context, key string) (*Record, error)
}

// AuthorProvider looks authors and their works up in an external source,
// with the same failure contract as BookProvider.
type AuthorProvider interface {
	Name() string
	SearchAuthor(ctx context.Context, name string) ([]*AuthorRecord, error)
	GetAuthorDetails(ctx context.Context, key string) (*AuthorRecord, error)
	GetAuthorWorks(ctx context.Context, key string, limit int) ([]*WorkRecord, error)
	GetWorkDetails(ctx context.Context, key string) (*WorkRecord, error)
}

// CoverProvider builds cover image URLs. It never touches the network and
// returns "" for an empty identifier.
type CoverProvider interface {
	CoverByISBN(isbn string, size CoverSize) string
	CoverByID(id string, size CoverSize) string
}
