package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// CreateAuthor inserts an author directly, bypassing the service.
func CreateAuthor(t *testing.T, db *bun.DB, name string) *models.Author {
	t.Helper()

	author := models.NewAuthor(name)
	author.CreatedAt = time.Now()
	author.UpdatedAt = author.CreatedAt
	_, err := db.NewInsert().Model(author).Exec(context.Background())
	require.NoError(t, err)
	return author
}

// CreateBook inserts an epub book linked to authorIDs in order.
func CreateBook(t *testing.T, db *bun.DB, title string, authorIDs ...uuid.UUID) *models.Book {
	t.Helper()
	ctx := context.Background()

	book := models.NewBook()
	book.CreatedAt = time.Now()
	book.UpdatedAt = book.CreatedAt
	book.Title = title
	book.Filepath = "/library/" + title + ".epub"
	book.Format = models.FormatEPUB
	book.CoverFingerprint = models.NoCoverFingerprint
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	for i, id := range authorIDs {
		link := &models.BookAuthor{BookID: book.ID, AuthorID: id, SortOrder: i + 1}
		_, err := db.NewInsert().Model(link).Exec(ctx)
		require.NoError(t, err)
		book.Authors = append(book.Authors, link)
	}
	return book
}

// CreateUser inserts a reader with a placeholder password hash.
func CreateUser(t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: "x",
		Role:         models.RoleReader,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}
