package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",notnull" json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `bun:",notnull" json:"-"` // Never expose password hash
	Role         string    `bun:",notnull" json:"role"`
}

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:bm"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `bun:",type:uuid" json:"user_id"`
	BookID    uuid.UUID `bun:",type:uuid" json:"book_id"`
	Page      int       `bun:",notnull" json:"page"`
	Quote     *string   `json:"quote,omitempty"`
	Note      *string   `json:"note,omitempty"`
}

// Reading statuses.
const (
	StatusPending   = "pending"
	StatusReading   = "reading"
	StatusFinished  = "finished"
	StatusReread    = "reread"
	StatusPaused    = "paused"
	StatusAbandoned = "abandoned"
)

type Progress struct {
	bun.BaseModel `bun:"table:reading_progress,alias:rp"`

	ID          uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UserID      uuid.UUID  `bun:",type:uuid" json:"user_id"`
	BookID      uuid.UUID  `bun:",type:uuid" json:"book_id"`
	CurrentPage int        `bun:",notnull" json:"current_page"`
	Percentage  float64    `bun:",notnull" json:"percentage"`
	Status      string     `bun:",notnull" json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	LastReadAt  time.Time  `json:"last_read_at"`
}
