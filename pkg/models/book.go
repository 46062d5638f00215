package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID               uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Title            string        `bun:",notnull" json:"title"`
	Filepath         string        `bun:",notnull" json:"filepath"`
	Format           Format        `bun:",notnull" json:"format"`
	CoverFingerprint string        `bun:",notnull" json:"cover_fingerprint"`
	CoverURL         *string       `json:"cover_url,omitempty"`
	ISBN             *string       `bun:"isbn" json:"isbn,omitempty"`
	PublishDate      *string       `json:"publish_date,omitempty"`
	Publisher        *string       `json:"publisher,omitempty"`
	Description      *string       `json:"description,omitempty"`
	PageCount        *int          `json:"page_count,omitempty"`
	Year             *string       `json:"year,omitempty"`
	SeriesID         *uuid.UUID    `bun:",type:uuid" json:"series_id,omitempty"`
	Series           *Series       `bun:"rel:belongs-to,join:series_id=id" json:"series,omitempty"`
	Authors          []*BookAuthor `bun:"rel:has-many,join:id=book_id" json:"authors,omitempty"`
}

// NewBook returns a Book with a freshly generated identity.
func NewBook() *Book {
	return &Book{ID: uuid.New()}
}

// AuthorIDs returns the author identities in their stored order.
func (b *Book) AuthorIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Authors))
	for _, a := range b.Authors {
		ids = append(ids, a.AuthorID)
	}
	return ids
}

// BookAuthor links a book to one of its authors. SortOrder keeps the order
// the names appeared in the book's metadata.
type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	BookID    uuid.UUID `bun:",pk,type:uuid" json:"book_id"`
	AuthorID  uuid.UUID `bun:",pk,type:uuid" json:"author_id"`
	SortOrder int       `bun:",notnull" json:"sort_order"`
	Author    *Author   `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}
