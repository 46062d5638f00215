package bookmarks

import "github.com/google/uuid"

type CreateBookmarkOptions struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	BookID uuid.UUID `json:"book_id" validate:"required"`
	Page   int       `json:"page" validate:"min=0"`
	Quote  *string   `json:"quote,omitempty" validate:"omitempty,max=2000"`
	Note   *string   `json:"note,omitempty" validate:"omitempty,max=2000"`
}
