package series

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/uptrace/bun"
)

// Name matching modes for FindOrCreateSeries.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

type RetrieveSeriesOptions struct {
	ID   *uuid.UUID
	Name *string
}

type ListSeriesOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *uuid.UUID
}

type Service struct {
	db        bun.IDB
	nameMatch string
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, nameMatch: MatchExact}
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

func validate(series *models.Series) error {
	series.Name = strings.TrimSpace(series.Name)
	if series.Name == "" {
		return errcodes.EmptyName("Series")
	}
	series.AuthorIDs = uniqueIDs(series.AuthorIDs)
	if len(series.AuthorIDs) == 0 {
		return errcodes.ValidationError("A series needs at least one author.")
	}
	series.NameKey = models.NameKey(series.Name)
	if series.ID == uuid.Nil {
		series.ID = uuid.New()
	}
	return nil
}

// CreateSeries stores a new series along with its authors.
func (svc *Service) CreateSeries(ctx context.Context, series *models.Series) error {
	if err := validate(series); err != nil {
		return err
	}

	now := time.Now()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = series.CreatedAt

	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(series).Exec(ctx); err != nil {
			return errcodes.PersistenceFailed("Series", err)
		}
		return replaceAuthors(ctx, tx, series.ID, series.AuthorIDs)
	})
}

// SaveSeries upserts series by ID and replaces its author list.
func (svc *Service) SaveSeries(ctx context.Context, series *models.Series) error {
	if err := validate(series); err != nil {
		return err
	}

	now := time.Now()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(series).
			On("CONFLICT (id) DO UPDATE").
			Exec(ctx)
		if err != nil {
			return errcodes.PersistenceFailed("Series", err)
		}
		return replaceAuthors(ctx, tx, series.ID, series.AuthorIDs)
	})
}

func replaceAuthors(ctx context.Context, tx bun.Tx, seriesID uuid.UUID, authorIDs []uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*models.SeriesAuthor)(nil)).
		Where("series_id = ?", seriesID).
		Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Series", err)
	}

	links := make([]*models.SeriesAuthor, 0, len(authorIDs))
	for i, id := range authorIDs {
		links = append(links, &models.SeriesAuthor{SeriesID: seriesID, AuthorID: id, SortOrder: i + 1})
	}
	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return errcodes.PersistenceFailed("Series", err)
	}
	return nil
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series)

	switch {
	case opts.ID != nil:
		q = q.Where("s.id = ?", *opts.ID)
	case opts.Name != nil:
		q = q.Where("s.name_key = ?", models.NameKey(*opts.Name)).Order("s.created_at ASC").Limit(1)
	default:
		return nil, errcodes.ValidationError("An ID or name is required to retrieve a series.")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	if err := svc.loadMembership(ctx, series); err != nil {
		return nil, err
	}
	return series, nil
}

func (svc *Service) loadMembership(ctx context.Context, series *models.Series) error {
	err := svc.db.
		NewSelect().
		Table("series_authors").
		Column("author_id").
		Where("series_id = ?", series.ID).
		Order("sort_order ASC").
		Scan(ctx, &series.AuthorIDs)
	if err != nil {
		return errors.WithStack(err)
	}

	err = svc.db.
		NewSelect().
		Table("books").
		Column("id").
		Where("series_id = ?", series.ID).
		Order("created_at ASC").
		Scan(ctx, &series.BookIDs)
	return errors.WithStack(err)
}

// FindSeriesByName returns the series whose name contains name, ignoring
// case, oldest first.
func (svc *Service) FindSeriesByName(ctx context.Context, name string) ([]*models.Series, error) {
	key := models.NameKey(name)
	if key == "" {
		return nil, errcodes.EmptyName("Series")
	}

	var found []*models.Series
	err := svc.db.
		NewSelect().
		Model(&found).
		Where("instr(s.name_key, ?) > 0", key).
		Order("s.created_at ASC", "s.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return found, nil
}

// FindOrCreateSeries returns the series matching name, creating it with
// authorIDs when none matches. Authors missing from an existing series are
// appended to it. The second return value reports whether it was created.
func (svc *Service) FindOrCreateSeries(ctx context.Context, name string, authorIDs []uuid.UUID) (*models.Series, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errcodes.EmptyName("Series")
	}

	var existing *models.Series
	if svc.nameMatch == MatchSubstring {
		found, err := svc.FindSeriesByName(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if len(found) > 0 {
			existing = found[0]
		}
	} else {
		s, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Name: &name})
		if err != nil && !errcodes.HasCode(err, errcodes.CodeNotFound) {
			return nil, false, err
		}
		existing = s
	}

	if existing == nil {
		series := models.NewSeries(name, authorIDs)
		if err := svc.CreateSeries(ctx, series); err != nil {
			return nil, false, err
		}
		return series, true, nil
	}

	if err := svc.loadMembership(ctx, existing); err != nil {
		return nil, false, err
	}
	merged := uniqueIDs(append(append([]uuid.UUID(nil), existing.AuthorIDs...), authorIDs...))
	if len(merged) != len(existing.AuthorIDs) {
		err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return replaceAuthors(ctx, tx, existing.ID, merged)
		})
		if err != nil {
			return nil, false, err
		}
		existing.AuthorIDs = merged
	}
	return existing, false, nil
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	var list []*models.Series

	q := svc.db.
		NewSelect().
		Model(&list).
		Order("s.name_key ASC")

	if opts.AuthorID != nil {
		q = q.Where("s.id IN (SELECT series_id FROM series_authors WHERE author_id = ?)", *opts.AuthorID)
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
	for _, s := range list {
		if err := svc.loadMembership(ctx, s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// AddBook makes the book a member of the series.
func (svc *Service) AddBook(ctx context.Context, seriesID, bookID uuid.UUID) error {
	return svc.setBookSeries(ctx, bookID, &seriesID, nil)
}

// RemoveBook takes the book out of the series. It's a not_found error when
// the book isn't in it.
func (svc *Service) RemoveBook(ctx context.Context, seriesID, bookID uuid.UUID) error {
	return svc.setBookSeries(ctx, bookID, nil, &seriesID)
}

func (svc *Service) setBookSeries(ctx context.Context, bookID uuid.UUID, seriesID, currentSeriesID *uuid.UUID) error {
	if seriesID != nil {
		exists, err := svc.db.NewSelect().
			Model((*models.Series)(nil)).
			Where("s.id = ?", *seriesID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Series")
		}
	}

	var value interface{}
	if seriesID != nil {
		value = *seriesID
	}
	q := svc.db.
		NewUpdate().
		Model((*models.Book)(nil)).
		Set("series_id = ?", value).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", bookID)
	if currentSeriesID != nil {
		q = q.Where("series_id = ?", *currentSeriesID)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errcodes.PersistenceFailed("Series", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

func (svc *Service) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Series)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Series")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
