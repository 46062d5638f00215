package series

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

func TestCreateSeries(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Isaac Asimov")

	series := models.NewSeries(" Foundation ", []uuid.UUID{author.ID, author.ID})
	require.NoError(t, svc.CreateSeries(ctx, series))
	assert.Equal(t, "Foundation", series.Name)

	got, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	require.NoError(t, err)
	assert.Equal(t, "Foundation", got.Name)
	assert.Equal(t, []uuid.UUID{author.ID}, got.AuthorIDs)
	assert.Empty(t, got.BookIDs)

	err = svc.CreateSeries(ctx, models.NewSeries("", []uuid.UUID{author.ID}))
	assert.True(t, errcodes.HasCode(err, errcodes.CodeEmptyName))

	err = svc.CreateSeries(ctx, models.NewSeries("Robots", nil))
	assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
}

func TestFindOrCreateSeries(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	asimov := testutils.CreateAuthor(t, db, "Isaac Asimov")
	silverberg := testutils.CreateAuthor(t, db, "Robert Silverberg")

	first, created, err := svc.FindOrCreateSeries(ctx, "Foundation", []uuid.UUID{asimov.ID})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.FindOrCreateSeries(ctx, "FOUNDATION", []uuid.UUID{asimov.ID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []uuid.UUID{asimov.ID}, second.AuthorIDs)

	third, created, err := svc.FindOrCreateSeries(ctx, "Foundation", []uuid.UUID{silverberg.ID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, []uuid.UUID{asimov.ID, silverberg.ID}, third.AuthorIDs)

	all, err := svc.ListSeries(ctx, ListSeriesOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindOrCreateSeries_Substring(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db).WithNameMatch(MatchSubstring)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Frank Herbert")
	existing, _, err := svc.FindOrCreateSeries(ctx, "Dune Chronicles", []uuid.UUID{author.ID})
	require.NoError(t, err)

	got, created, err := svc.FindOrCreateSeries(ctx, "dune", []uuid.UUID{author.ID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, got.ID)
}

func TestAddAndRemoveBook(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	book := testutils.CreateBook(t, db, "Foundation", author.ID)
	series, _, err := svc.FindOrCreateSeries(ctx, "Foundation", []uuid.UUID{author.ID})
	require.NoError(t, err)

	require.NoError(t, svc.AddBook(ctx, series.ID, book.ID))

	got, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{book.ID}, got.BookIDs)

	require.NoError(t, svc.RemoveBook(ctx, series.ID, book.ID))
	got, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	require.NoError(t, err)
	assert.Empty(t, got.BookIDs)

	err = svc.RemoveBook(ctx, series.ID, book.ID)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))

	err = svc.AddBook(ctx, uuid.New(), book.ID)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))

	err = svc.AddBook(ctx, series.ID, uuid.New())
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))
}

func TestListSeries_ByAuthor(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	asimov := testutils.CreateAuthor(t, db, "Isaac Asimov")
	herbert := testutils.CreateAuthor(t, db, "Frank Herbert")
	_, _, err := svc.FindOrCreateSeries(ctx, "Robots", []uuid.UUID{asimov.ID})
	require.NoError(t, err)
	_, _, err = svc.FindOrCreateSeries(ctx, "Foundation", []uuid.UUID{asimov.ID})
	require.NoError(t, err)
	_, _, err = svc.FindOrCreateSeries(ctx, "Dune", []uuid.UUID{herbert.ID})
	require.NoError(t, err)

	list, err := svc.ListSeries(ctx, ListSeriesOptions{AuthorID: &asimov.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Foundation", list[0].Name)
	assert.Equal(t, "Robots", list[1].Name)
	assert.Equal(t, []uuid.UUID{asimov.ID}, list[0].AuthorIDs)
}

func TestDeleteSeries(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Isaac Asimov")
	series, _, err := svc.FindOrCreateSeries(ctx, "Foundation", []uuid.UUID{author.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSeries(ctx, series.ID))
	_, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))
	assert.True(t, errcodes.HasCode(svc.DeleteSeries(ctx, series.ID), errcodes.CodeNotFound))
}
