package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func tableNames(t *testing.T, db *bun.DB) []string {
	t.Helper()

	var names []string
	err := db.NewSelect().
		Table("sqlite_master").
		Column("name").
		Where("type = 'table'").
		Where("name NOT LIKE 'bun_%'").
		Where("name NOT LIKE 'sqlite_%'").
		Order("name").
		Scan(context.Background(), &names)
	require.NoError(t, err)
	return names
}

func TestBringUpToDate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	assert.Equal(t, []string{
		"authors",
		"book_authors",
		"bookmarks",
		"books",
		"reading_progress",
		"series",
		"series_authors",
		"users",
	}, tableNames(t, db))

	// Running again is a no-op.
	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)
}

func TestRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	group, err := Rollback(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)
	assert.Empty(t, tableNames(t, db))
}
