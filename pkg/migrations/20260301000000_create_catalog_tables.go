package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{`
			CREATE TABLE authors (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				name_key TEXT NOT NULL,
				photo_fingerprint TEXT,
				biography TEXT,
				birth_date TEXT,
				death_date TEXT,
				nationality TEXT,
				social_links TEXT,
				provider_key TEXT
			)
`,
			`CREATE INDEX ix_authors_name_key ON authors (name_key)`,
			`
			CREATE TABLE series (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				name_key TEXT NOT NULL,
				description TEXT,
				cover_fingerprint TEXT
			)
`,
			`CREATE INDEX ix_series_name_key ON series (name_key)`,
			`
			CREATE TABLE series_authors (
				series_id TEXT REFERENCES series (id) ON DELETE CASCADE NOT NULL,
				author_id TEXT REFERENCES authors (id) ON DELETE CASCADE NOT NULL,
				sort_order INTEGER NOT NULL,
				PRIMARY KEY (series_id, author_id)
			)
`,
			`
			CREATE TABLE books (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				filepath TEXT NOT NULL,
				format TEXT NOT NULL,
				cover_fingerprint TEXT NOT NULL,
				cover_url TEXT,
				isbn TEXT,
				publish_date TEXT,
				publisher TEXT,
				description TEXT,
				page_count INTEGER,
				year TEXT,
				series_id TEXT REFERENCES series (id) ON DELETE SET NULL
			)
`,
			`CREATE INDEX ix_books_filepath ON books (filepath)`,
			`CREATE INDEX ix_books_series_id ON books (series_id)`,
			`
			CREATE TABLE book_authors (
				book_id TEXT REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				author_id TEXT REFERENCES authors (id) ON DELETE CASCADE NOT NULL,
				sort_order INTEGER NOT NULL,
				PRIMARY KEY (book_id, author_id)
			)
`,
			`CREATE INDEX ix_book_authors_author_id ON book_authors (author_id)`,
			`
			CREATE TABLE users (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL
			)
`,
			`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`,
			`
			CREATE TABLE bookmarks (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				book_id TEXT REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				page INTEGER NOT NULL,
				quote TEXT,
				note TEXT
			)
`,
			`CREATE INDEX ix_bookmarks_user_book ON bookmarks (user_id, book_id)`,
			`
			CREATE TABLE reading_progress (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				book_id TEXT REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				current_page INTEGER NOT NULL DEFAULT 0,
				percentage REAL NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				started_at TIMESTAMPTZ,
				finished_at TIMESTAMPTZ,
				last_read_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`,
			`CREATE UNIQUE INDEX ux_reading_progress_user_book ON reading_progress (user_id, book_id)`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{
			"reading_progress",
			"bookmarks",
			"users",
			"book_authors",
			"books",
			"series_authors",
			"series",
			"authors",
		} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
