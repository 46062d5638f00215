package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID               uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Name             string            `bun:",notnull" json:"name"`
	NameKey          string            `bun:",notnull" json:"-"`
	PhotoFingerprint *string           `json:"photo_fingerprint,omitempty"`
	Biography        *string           `json:"biography,omitempty"`
	BirthDate        *string           `json:"birth_date,omitempty"`
	DeathDate        *string           `json:"death_date,omitempty"`
	Nationality      *string           `json:"nationality,omitempty"`
	SocialLinks      map[string]string `bun:",nullzero" json:"social_links,omitempty"`
	// ProviderKey is the external source's key for this author, set once the
	// author has been enriched.
	ProviderKey *string `json:"provider_key,omitempty"`

	// BookIDs is filled on retrieval from book_authors. It's informational
	// only; book_authors is the source of truth.
	BookIDs []uuid.UUID `bun:"-" json:"book_ids,omitempty"`
}

// NewAuthor returns an Author with a freshly generated identity.
func NewAuthor(name string) *Author {
	return &Author{
		ID:      uuid.New(),
		Name:    name,
		NameKey: NameKey(name),
	}
}
