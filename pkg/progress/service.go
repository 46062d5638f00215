package progress

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

type RetrieveProgressOptions struct {
	ID     *uuid.UUID
	UserID *uuid.UUID
	BookID *uuid.UUID
}

type ListProgressOptions struct {
	UserID *uuid.UUID
	Status *string
}

type Service struct {
	db     *bun.DB
	binder *binder.Binder
}

func NewService(db *bun.DB) *Service {
	return &Service{db, binder.New()}
}

// StartReading marks the book as being read by the user. Calling it again
// for a pair that already has progress moves it back to reading without
// losing the current page.
func (svc *Service) StartReading(ctx context.Context, userID, bookID uuid.UUID) (*models.Progress, error) {
	now := time.Now()

	existing, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{UserID: &userID, BookID: &bookID})
	if err != nil && !errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.StatusFinished {
			existing.Status = models.StatusReread
		} else {
			existing.Status = models.StatusReading
		}
		if existing.StartedAt == nil {
			existing.StartedAt = &now
		}
		existing.LastReadAt = now
		existing.UpdatedAt = now
		_, err := svc.db.
			NewUpdate().
			Model(existing).
			Column("status", "started_at", "last_read_at", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return nil, errcodes.PersistenceFailed("Progress", err)
		}
		return existing, nil
	}

	progress := &models.Progress{
		ID:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
		BookID:     bookID,
		Status:     models.StatusReading,
		StartedAt:  &now,
		LastReadAt: now,
	}
	_, err = svc.db.NewInsert().Model(progress).Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Progress", err)
	}
	return progress, nil
}

// MarkPending puts the book on the user's read-later list: status pending
// with the page and percentage reset. An existing entry for the pair is
// overwritten.
func (svc *Service) MarkPending(ctx context.Context, userID, bookID uuid.UUID) (*models.Progress, error) {
	now := time.Now()

	existing, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{UserID: &userID, BookID: &bookID})
	if err != nil && !errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		existing.Status = models.StatusPending
		existing.CurrentPage = 0
		existing.Percentage = 0
		existing.LastReadAt = now
		existing.UpdatedAt = now
		_, err := svc.db.
			NewUpdate().
			Model(existing).
			Column("status", "current_page", "percentage", "last_read_at", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return nil, errcodes.PersistenceFailed("Progress", err)
		}
		return existing, nil
	}

	progress := &models.Progress{
		ID:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
		BookID:     bookID,
		Status:     models.StatusPending,
		LastReadAt: now,
	}
	_, err = svc.db.NewInsert().Model(progress).Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Progress", err)
	}
	return progress, nil
}

// UpdateProgress applies the given page, percentage and status changes.
// Moving to finished stamps FinishedAt and sets the percentage to 100.
// Reaching 100% without an explicit status finishes the book too.
func (svc *Service) UpdateProgress(ctx context.Context, id uuid.UUID, opts UpdateProgressOptions) (*models.Progress, error) {
	if err := svc.binder.Bind(ctx, &opts); err != nil {
		return nil, err
	}

	progress, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	columns := []string{"last_read_at", "updated_at"}
	if opts.CurrentPage != nil {
		progress.CurrentPage = *opts.CurrentPage
		columns = append(columns, "current_page")
	}
	if opts.Percentage != nil {
		progress.Percentage = *opts.Percentage
		columns = append(columns, "percentage")
	}

	status := opts.Status
	if status == nil && opts.Percentage != nil && *opts.Percentage >= 100 {
		finished := models.StatusFinished
		status = &finished
	}
	if status != nil && *status != progress.Status {
		progress.Status = *status
		columns = append(columns, "status")
		switch progress.Status {
		case models.StatusFinished:
			progress.FinishedAt = &now
			progress.Percentage = 100
			columns = append(columns, "finished_at", "percentage")
		case models.StatusReading, models.StatusReread:
			if progress.StartedAt == nil {
				progress.StartedAt = &now
				columns = append(columns, "started_at")
			}
		}
	}
	progress.LastReadAt = now
	progress.UpdatedAt = now

	_, err = svc.db.
		NewUpdate().
		Model(progress).
		Column(uniqueColumns(columns)...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("Progress", err)
	}
	return progress, nil
}

// RetrieveProgress looks progress up by ID, or by the user and book pair.
func (svc *Service) RetrieveProgress(ctx context.Context, opts RetrieveProgressOptions) (*models.Progress, error) {
	progress := &models.Progress{}

	q := svc.db.
		NewSelect().
		Model(progress)

	if opts.ID != nil {
		q = q.Where("rp.id = ?", *opts.ID)
	}
	if opts.UserID != nil {
		q = q.Where("rp.user_id = ?", *opts.UserID)
	}
	if opts.BookID != nil {
		q = q.Where("rp.book_id = ?", *opts.BookID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Progress")
		}
		return nil, errors.WithStack(err)
	}
	return progress, nil
}

// ListProgress returns progress entries with the most recently read first.
func (svc *Service) ListProgress(ctx context.Context, opts ListProgressOptions) ([]*models.Progress, error) {
	var entries []*models.Progress

	q := svc.db.
		NewSelect().
		Model(&entries).
		Order("rp.last_read_at DESC")

	if opts.UserID != nil {
		q = q.Where("rp.user_id = ?", *opts.UserID)
	}
	if opts.Status != nil {
		q = q.Where("rp.status = ?", *opts.Status)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return entries, nil
}

func (svc *Service) DeleteProgress(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Progress)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Progress")
	}
	return nil
}

func uniqueColumns(columns []string) []string {
	seen := make(map[string]struct{}, len(columns))
	out := columns[:0]
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
