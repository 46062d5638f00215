package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/samanbooks/samanbooks/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestReadingLifecycle(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := testutils.CreateUser(t, db, "reader")
	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	book := testutils.CreateBook(t, db, "Foundation", author.ID)

	started, err := svc.StartReading(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReading, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Nil(t, started.FinishedAt)

	halfway, err := svc.UpdateProgress(ctx, started.ID, UpdateProgressOptions{
		CurrentPage: intPtr(128),
		Percentage:  floatPtr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 128, halfway.CurrentPage)
	assert.InDelta(t, 50.0, halfway.Percentage, 0.001)

	finished, err := svc.UpdateProgress(ctx, started.ID, UpdateProgressOptions{Status: strPtr(models.StatusFinished)})
	require.NoError(t, err)
	require.NotNil(t, finished.FinishedAt)

	got, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{UserID: &user.ID, BookID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, started.ID, got.ID)
	assert.Equal(t, models.StatusFinished, got.Status)
	assert.InDelta(t, 100.0, got.Percentage, 0.001)
	assert.Equal(t, 128, got.CurrentPage)

	again, err := svc.StartReading(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, again.ID)
	assert.Equal(t, models.StatusReread, again.Status)

	list, err := svc.ListProgress(ctx, ListProgressOptions{UserID: &user.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteProgress(ctx, started.ID))
	_, err = svc.RetrieveProgress(ctx, RetrieveProgressOptions{ID: &started.ID})
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))
}

func TestUpdateProgress_Validation(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := testutils.CreateUser(t, db, "reader")
	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	book := testutils.CreateBook(t, db, "Foundation", author.ID)
	p, err := svc.StartReading(ctx, user.ID, book.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		opts UpdateProgressOptions
	}{
		{"percentage above 100", UpdateProgressOptions{Percentage: floatPtr(100.5)}},
		{"negative percentage", UpdateProgressOptions{Percentage: floatPtr(-1)}},
		{"negative page", UpdateProgressOptions{CurrentPage: intPtr(-3)}},
		{"unknown status", UpdateProgressOptions{Status: strPtr("skimming")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProgress(ctx, p.ID, tt.opts)
			assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
		})
	}

	boundary, err := svc.UpdateProgress(ctx, p.ID, UpdateProgressOptions{Percentage: floatPtr(100)})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, boundary.Percentage, 0.001)

	_, err = svc.UpdateProgress(ctx, uuid.New(), UpdateProgressOptions{Percentage: floatPtr(10)})
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))
}

func TestUpdateProgress_FullPercentageFinishes(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := testutils.CreateUser(t, db, "reader")
	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	book := testutils.CreateBook(t, db, "Foundation", author.ID)

	started, err := svc.StartReading(ctx, user.ID, book.ID)
	require.NoError(t, err)

	done, err := svc.UpdateProgress(ctx, started.ID, UpdateProgressOptions{Percentage: floatPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, done.Status)
	require.NotNil(t, done.FinishedAt)

	got, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{ID: &started.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, got.Status)
	assert.NotNil(t, got.FinishedAt)

	// An explicit status wins over the percentage.
	paused, err := svc.UpdateProgress(ctx, started.ID, UpdateProgressOptions{
		Percentage: floatPtr(100),
		Status:     strPtr(models.StatusPaused),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, paused.Status)
}

func TestMarkPending(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := testutils.CreateUser(t, db, "reader")
	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	book := testutils.CreateBook(t, db, "Foundation", author.ID)

	pending, err := svc.MarkPending(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, pending.Status)
	assert.Nil(t, pending.StartedAt)

	list, err := svc.ListProgress(ctx, ListProgressOptions{UserID: &user.ID, Status: strPtr(models.StatusPending)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	started, err := svc.StartReading(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, started.ID)
	_, err = svc.UpdateProgress(ctx, started.ID, UpdateProgressOptions{CurrentPage: intPtr(40), Percentage: floatPtr(20)})
	require.NoError(t, err)

	again, err := svc.MarkPending(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, again.ID)

	got, err := svc.RetrieveProgress(ctx, RetrieveProgressOptions{UserID: &user.ID, BookID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Zero(t, got.CurrentPage)
	assert.Zero(t, got.Percentage)
}
