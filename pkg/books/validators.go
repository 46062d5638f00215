package books

import (
	"github.com/google/uuid"
	"github.com/samanbooks/samanbooks/pkg/models"
)

// RegisterBookOptions is everything needed to register a scanned file.
// Title, at least one author, the path, the format and the cover
// fingerprint are mandatory.
type RegisterBookOptions struct {
	Title            string        `json:"title" mod:"trim" validate:"required"`
	AuthorIDs        []uuid.UUID   `json:"author_ids" validate:"required,min=1"`
	Filepath         string        `json:"filepath" validate:"required"`
	Format           models.Format `json:"format" validate:"required,oneof=epub pdf unknown"`
	CoverFingerprint string        `json:"cover_fingerprint" mod:"trim" validate:"required"`
	CoverURL         *string       `json:"cover_url,omitempty" validate:"omitempty,url"`
	ISBN             *string       `json:"isbn,omitempty"`
	PublishDate      *string       `json:"publish_date,omitempty"`
	Publisher        *string       `json:"publisher,omitempty"`
	Description      *string       `json:"description,omitempty"`
	PageCount        *int          `json:"page_count,omitempty" validate:"omitempty,min=0"`
	Year             *string       `json:"year,omitempty" validate:"omitempty,year"`
	SeriesID         *uuid.UUID    `json:"series_id,omitempty"`
}

// BookMetadataUpdate holds user edits to a registered book. Nil fields are
// left alone.
type BookMetadataUpdate struct {
	Title            *string    `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=500"`
	Description      *string    `json:"description,omitempty"`
	PageCount        *int       `json:"page_count,omitempty" validate:"omitempty,min=0"`
	Year             *string    `json:"year,omitempty" validate:"omitempty,year"`
	ISBN             *string    `json:"isbn,omitempty" validate:"omitempty,isbn"`
	SeriesID         *uuid.UUID `json:"series_id,omitempty"`
	CoverFingerprint *string    `json:"cover_fingerprint,omitempty" validate:"omitempty,min=1"`
}
