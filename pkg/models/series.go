package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID               uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Name             string    `bun:",notnull" json:"name"`
	NameKey          string    `bun:",notnull" json:"-"`
	Description      *string   `json:"description,omitempty"`
	CoverFingerprint *string   `json:"cover_fingerprint,omitempty"`

	// AuthorIDs and BookIDs are loaded from series_authors and
	// books.series_id respectively.
	AuthorIDs []uuid.UUID `bun:"-" json:"author_ids"`
	BookIDs   []uuid.UUID `bun:"-" json:"book_ids"`
}

func NewSeries(name string, authorIDs []uuid.UUID) *Series {
	return &Series{
		ID:        uuid.New(),
		Name:      name,
		NameKey:   NameKey(name),
		AuthorIDs: authorIDs,
	}
}

type SeriesAuthor struct {
	bun.BaseModel `bun:"table:series_authors,alias:sa"`

	SeriesID  uuid.UUID `bun:",pk,type:uuid"`
	AuthorID  uuid.UUID `bun:",pk,type:uuid"`
	SortOrder int       `bun:",notnull"`
}
