package books

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

type RetrieveBookOptions struct {
	ID       *uuid.UUID
	Filepath *string
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *uuid.UUID
	SeriesID *uuid.UUID
}

type Service struct {
	db     bun.IDB
	binder *binder.Binder
}

func NewService(db *bun.DB) *Service {
	return &Service{db, binder.New()}
}

// WithTx returns a copy of the service that runs every query in tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	c := *svc
	c.db = tx
	return &c
}

// RegisterBook validates opts and stores a new book with its author links
// in one transaction.
func (svc *Service) RegisterBook(ctx context.Context, opts RegisterBookOptions) (*models.Book, error) {
	if err := svc.binder.Bind(ctx, &opts); err != nil {
		return nil, err
	}

	book := models.NewBook()
	book.Title = opts.Title
	book.Filepath = opts.Filepath
	book.Format = opts.Format
	book.CoverFingerprint = opts.CoverFingerprint
	book.CoverURL = opts.CoverURL
	book.ISBN = opts.ISBN
	book.PublishDate = opts.PublishDate
	book.Publisher = opts.Publisher
	book.Description = opts.Description
	book.PageCount = opts.PageCount
	book.Year = opts.Year
	book.SeriesID = opts.SeriesID

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return saveBook(ctx, tx, book, opts.AuthorIDs)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// SaveBook upserts book by ID and replaces its author links with
// authorIDs, keeping their order.
func (svc *Service) SaveBook(ctx context.Context, book *models.Book, authorIDs []uuid.UUID) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return saveBook(ctx, tx, book, authorIDs)
	})
}

func saveBook(ctx context.Context, tx bun.Tx, book *models.Book, authorIDs []uuid.UUID) error {
	authorIDs = uniqueIDs(authorIDs)
	if len(authorIDs) == 0 {
		return errcodes.ValidationError("A book needs at least one author.")
	}

	count, err := tx.NewSelect().
		Model((*models.Author)(nil)).
		Where("a.id IN (?)", bun.In(authorIDs)).
		Count(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Book", err)
	}
	if count != len(authorIDs) {
		return errcodes.NotFound("Author")
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	_, err = tx.NewInsert().
		Model(book).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Book", err)
	}

	_, err = tx.NewDelete().
		Model((*models.BookAuthor)(nil)).
		Where("book_id = ?", book.ID).
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Book", err)
	}

	links := make([]*models.BookAuthor, 0, len(authorIDs))
	for i, id := range authorIDs {
		links = append(links, &models.BookAuthor{BookID: book.ID, AuthorID: id, SortOrder: i + 1})
	}
	_, err = tx.NewInsert().Model(&links).Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Book", err)
	}
	book.Authors = links
	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Series").
		Relation("Authors", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ba.sort_order ASC")
		}).
		Relation("Authors.Author")

	switch {
	case opts.ID != nil:
		q = q.Where("b.id = ?", *opts.ID)
	case opts.Filepath != nil:
		q = q.Where("b.filepath = ?", *opts.Filepath).Order("b.created_at ASC").Limit(1)
	default:
		return nil, errcodes.ValidationError("An ID or filepath is required to retrieve a book.")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	var books []*models.Book

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Authors", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ba.sort_order ASC")
		}).
		Relation("Authors.Author").
		Order("b.title ASC", "b.created_at ASC")

	if opts.AuthorID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_authors WHERE author_id = ?)", *opts.AuthorID)
	}
	if opts.SeriesID != nil {
		q = q.Where("b.series_id = ?", *opts.SeriesID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

// UpdateBookMetadata applies the non-nil fields of update to the book.
func (svc *Service) UpdateBookMetadata(ctx context.Context, id uuid.UUID, update BookMetadataUpdate) (*models.Book, error) {
	if err := svc.binder.Bind(ctx, &update); err != nil {
		return nil, err
	}

	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	var columns []string
	if update.Title != nil {
		book.Title = *update.Title
		columns = append(columns, "title")
	}
	if update.Description != nil {
		book.Description = update.Description
		columns = append(columns, "description")
	}
	if update.PageCount != nil {
		book.PageCount = update.PageCount
		columns = append(columns, "page_count")
	}
	if update.Year != nil {
		book.Year = update.Year
		columns = append(columns, "year")
	}
	if update.ISBN != nil {
		book.ISBN = update.ISBN
		columns = append(columns, "isbn")
	}
	if update.SeriesID != nil {
		book.SeriesID = update.SeriesID
		columns = append(columns, "series_id")
	}
	if update.CoverFingerprint != nil {
		book.CoverFingerprint = *update.CoverFingerprint
		columns = append(columns, "cover_fingerprint")
	}
	if len(columns) == 0 {
		return book, nil
	}

	book.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Book", err)
	}
	return book, nil
}

func (svc *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
