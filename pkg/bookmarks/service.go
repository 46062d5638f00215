package bookmarks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/binder"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/uptrace/bun"
)

type ListBookmarksOptions struct {
	UserID *uuid.UUID
	BookID *uuid.UUID
}

type Service struct {
	db     *bun.DB
	binder *binder.Binder
}

func NewService(db *bun.DB) *Service {
	return &Service{db, binder.New()}
}

func (svc *Service) CreateBookmark(ctx context.Context, opts CreateBookmarkOptions) (*models.Bookmark, error) {
	if err := svc.binder.Bind(ctx, &opts); err != nil {
		return nil, err
	}

	now := time.Now()
	bookmark := &models.Bookmark{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    opts.UserID,
		BookID:    opts.BookID,
		Page:      opts.Page,
		Quote:     opts.Quote,
		Note:      opts.Note,
	}
	_, err := svc.db.NewInsert().Model(bookmark).Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Bookmark", err)
	}
	return bookmark, nil
}

func (svc *Service) RetrieveBookmark(ctx context.Context, id uuid.UUID) (*models.Bookmark, error) {
	bookmark := &models.Bookmark{}
	err := svc.db.
		NewSelect().
		Model(bookmark).
		Where("bm.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Bookmark")
		}
		return nil, errors.WithStack(err)
	}
	return bookmark, nil
}

// ListBookmarks returns bookmarks in page order.
func (svc *Service) ListBookmarks(ctx context.Context, opts ListBookmarksOptions) ([]*models.Bookmark, error) {
	var bookmarks []*models.Bookmark

	q := svc.db.
		NewSelect().
		Model(&bookmarks).
		Order("bm.page ASC", "bm.created_at ASC")

	if opts.UserID != nil {
		q = q.Where("bm.user_id = ?", *opts.UserID)
	}
	if opts.BookID != nil {
		q = q.Where("bm.book_id = ?", *opts.BookID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return bookmarks, nil
}

// UpdateNote replaces the bookmark's note. A nil note clears it.
func (svc *Service) UpdateNote(ctx context.Context, id uuid.UUID, note *string) (*models.Bookmark, error) {
	bookmark, err := svc.RetrieveBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if note != nil && len(*note) > 2000 {
		return nil, errcodes.ValidationError(`"note" should be at most 2000 characters`)
	}

	bookmark.Note = note
	bookmark.UpdatedAt = time.Now()
	_, err = svc.db.
		NewUpdate().
		Model(bookmark).
		Column("note", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Bookmark", err)
	}
	return bookmark, nil
}

func (svc *Service) DeleteBookmark(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Bookmark")
	}
	return nil
}
