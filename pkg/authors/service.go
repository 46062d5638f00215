package authors

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/binder"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/uptrace/bun"
)

// Name matching modes for FindOrCreateAuthor.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

type RetrieveAuthorOptions struct {
	ID   *uuid.UUID
	Name *string
}

type ListAuthorsOptions struct {
	Limit  *int
	Offset *int
	Search *string
}

type Service struct {
	db        bun.IDB
	binder    *binder.Binder
	nameMatch string
}

// NewService returns an author service that matches names exactly (case
// and accent-composition insensitive).
func NewService(db *bun.DB) *Service {
	return &Service{db: db, binder: binder.New(), nameMatch: MatchExact}
}

// WithTx returns a copy of the service that runs every query in tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	c := *svc
	c.db = tx
	return &c
}

// WithNameMatch switches find-or-create to mode, MatchExact or
// MatchSubstring.
func (svc *Service) WithNameMatch(mode string) *Service {
	if mode == MatchSubstring {
		svc.nameMatch = MatchSubstring
	} else {
		svc.nameMatch = MatchExact
	}
	return svc
}

func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	author.Name = strings.TrimSpace(author.Name)
	if author.Name == "" {
		return errcodes.EmptyName("Author")
	}
	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	author.NameKey = models.NameKey(author.Name)

	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(author).
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Author", err)
	}
	return nil
}

// SaveAuthor inserts author or, when its ID already exists, overwrites it.
func (svc *Service) SaveAuthor(ctx context.Context, author *models.Author) error {
	author.Name = strings.TrimSpace(author.Name)
	if author.Name == "" {
		return errcodes.EmptyName("Author")
	}
	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	author.NameKey = models.NameKey(author.Name)

	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(author).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Author", err)
	}
	return nil
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author)

	switch {
	case opts.ID != nil:
		q = q.Where("a.id = ?", *opts.ID)
	case opts.Name != nil:
		q = q.Where("a.name_key = ?", models.NameKey(*opts.Name)).Order("a.created_at ASC").Limit(1)
	default:
		return nil, errcodes.ValidationError("An ID or name is required to retrieve an author.")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	err = svc.db.
		NewSelect().
		Table("book_authors").
		Column("book_id").
		Where("author_id = ?", author.ID).
		Order("book_id ASC").
		Scan(ctx, &author.BookIDs)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return author, nil
}

// FindAuthorsByName returns the authors whose name contains name, ignoring
// case, oldest first.
func (svc *Service) FindAuthorsByName(ctx context.Context, name string) ([]*models.Author, error) {
	key := models.NameKey(name)
	if key == "" {
		return nil, errcodes.EmptyName("Author")
	}

	var authors []*models.Author
	err := svc.db.
		NewSelect().
		Model(&authors).
		Where("instr(a.name_key, ?) > 0", key).
		Order("a.created_at ASC", "a.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return authors, nil
}

// FindOrCreateAuthor returns the author matching name, creating one when
// none matches. The second return value reports whether it was created.
func (svc *Service) FindOrCreateAuthor(ctx context.Context, name string) (*models.Author, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errcodes.EmptyName("Author")
	}

	if svc.nameMatch == MatchSubstring {
		found, err := svc.FindAuthorsByName(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if len(found) > 0 {
			return found[0], false, nil
		}
	} else {
		author, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{Name: &name})
		if err == nil {
			return author, false, nil
		}
		if !errcodes.HasCode(err, errcodes.CodeNotFound) {
			return nil, false, err
		}
	}

	author := models.NewAuthor(name)
	if err := svc.CreateAuthor(ctx, author); err != nil {
		return nil, false, err
	}
	return author, true, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	var authors []*models.Author

	q := svc.db.
		NewSelect().
		Model(&authors).
		Order("a.name_key ASC")

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		q = q.Where("instr(a.name_key, ?) > 0", models.NameKey(*opts.Search))
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
	return authors, nil
}

func (svc *Service) UpdateAuthor(ctx context.Context, author *models.Author, opts UpdateAuthorOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	columns := append([]string(nil), opts.Columns...)
	for _, c := range columns {
		if c == "name" {
			author.Name = strings.TrimSpace(author.Name)
			if author.Name == "" {
				return errcodes.EmptyName("Author")
			}
			author.NameKey = models.NameKey(author.Name)
			columns = append(columns, "name_key")
			break
		}
	}

	author.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(author).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Author", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Author")
	}
	return nil
}

// ApplyDetails validates details and writes the non-empty ones to the
// author.
func (svc *Service) ApplyDetails(ctx context.Context, author *models.Author, details AuthorDetails) error {
	if err := svc.binder.Bind(ctx, &details); err != nil {
		return err
	}

	var columns []string
	set := func(dst **string, src *string, column string) {
		if src != nil && strings.TrimSpace(*src) != "" {
			*dst = src
			columns = append(columns, column)
		}
	}
	set(&author.Biography, details.Biography, "biography")
	set(&author.BirthDate, details.BirthDate, "birth_date")
	set(&author.DeathDate, details.DeathDate, "death_date")
	set(&author.Nationality, details.Nationality, "nationality")
	set(&author.PhotoFingerprint, details.PhotoFingerprint, "photo_fingerprint")
	set(&author.ProviderKey, details.ProviderKey, "provider_key")
	if len(details.SocialLinks) > 0 {
		author.SocialLinks = details.SocialLinks
		columns = append(columns, "social_links")
	}

	return svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: columns})
}

func (svc *Service) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Author)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Author")
	}
	return nil
}
