package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/samanbooks/samanbooks/pkg/authors"
	"github.com/samanbooks/samanbooks/pkg/books"
	"github.com/samanbooks/samanbooks/pkg/config"
	"github.com/samanbooks/samanbooks/pkg/database"
	"github.com/samanbooks/samanbooks/pkg/epub"
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/metadata"
	"github.com/samanbooks/samanbooks/pkg/migrations"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/samanbooks/samanbooks/pkg/pdf"
	"github.com/samanbooks/samanbooks/pkg/scanner"
	"github.com/samanbooks/samanbooks/pkg/series"
	"github.com/samanbooks/samanbooks/pkg/version"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()
	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))
	defer cancel()

	graceful := signals.Setup()
	go func() {
		<-graceful
		log.Info("interrupted, stopping")
		cancel()
	}()

	app := &cli.App{
		Name:    "samanbooks",
		Usage:   "scan and catalog a digital library",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "register every epub and pdf under a directory",
				ArgsUsage: "[dir]",
				Action:    withDB(scanAction),
			},
			{
				Name:  "migrate",
				Usage: "bring the database schema up to date",
				Action: withDB(func(_ *cli.Context, _ *config.Config, _ *bun.DB) error {
					fmt.Println("Database schema is up to date")
					return nil
				}),
			},
			{
				Name:      "inspect",
				Usage:     "print the metadata embedded in a file",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "cover-output", Aliases: []string{"o"}, Usage: "write the cover image to this path"},
				},
				Action: inspectAction,
			},
			{
				Name:  "books",
				Usage: "work with registered books",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list books", Action: withDB(listBooksAction)},
				},
			},
			{
				Name:  "authors",
				Usage: "work with authors",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list authors", Action: withDB(listAuthorsAction)},
				},
			},
			{
				Name:  "series",
				Usage: "work with series",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list series", Action: withDB(listSeriesAction)},
				},
			},
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

// withDB loads the config, opens the database and brings it up to date
// before running action.
func withDB(action func(c *cli.Context, cfg *config.Config, db *bun.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		log := logger.FromContext(c.Context)

		cfg, err := config.New()
		if err != nil {
			return err
		}

		db, err := database.New(cfg)
		if err != nil {
			return errors.Wrap(err, "database error")
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Err(err).Error("database close error")
			}
		}()

		group, err := migrations.BringUpToDate(c.Context, db)
		if err != nil {
			return errors.Wrap(err, "migrations error")
		}
		if group.ID == 0 {
			log.Debug("no new migrations to run")
		} else {
			log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
		}

		return action(c, cfg, db)
	}
}

func scanAction(c *cli.Context, cfg *config.Config, db *bun.DB) error {
	root := c.Args().First()
	if root == "" {
		root = cfg.LibraryPath
	}
	if root == "" {
		return errors.New("no directory given and library_path is not set")
	}

	p := newProviders(cfg)
	opts := scanner.Options{
		IgnoredFolders:    cfg.IgnoredFolders,
		NameMatch:         cfg.NameMatch,
		SkipExistingPaths: cfg.SkipExistingPaths,
		AuthorProvider:    p.authors,
	}
	if len(p.books) > 0 {
		opts.Enricher = metadata.NewEnricher(p.books, p.covers, metadata.ParseCoverSize(cfg.CoverSize))
	}

	result, err := scanner.New(db, opts).ScanDirectory(c.Context, root)
	if result != nil {
		fmt.Printf("Scanned %d files: %d registered, %d ignored, %d skipped, %d failed\n",
			result.Scanned, result.Registered, result.Ignored, result.Skipped, result.Failed)
		for _, f := range result.Failures {
			fmt.Printf("  %s: %s\n", f.Path, f.Error)
		}
	}
	return err
}

func inspectAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("usage: samanbooks inspect <path/to/file>")
	}

	var parsed *mediafile.ParsedMetadata
	var err error
	switch mediafile.Classify(path) {
	case models.FormatEPUB:
		parsed, err = epub.NewExtractor().Extract(c.Context, path)
	case models.FormatPDF:
		parsed, err = pdf.NewExtractor().Extract(c.Context, path)
	default:
		return errors.Errorf("unsupported file: %s", path)
	}
	if err != nil {
		return err
	}
	fmt.Println(parsed.String())

	output := c.String("cover-output")
	if output != "" && parsed.HasCover() {
		if err := os.WriteFile(output, parsed.CoverData, 0o600); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func listBooksAction(c *cli.Context, _ *config.Config, db *bun.DB) error {
	list, err := books.NewService(db).ListBooks(c.Context, books.ListBooksOptions{})
	if err != nil {
		return err
	}
	for _, b := range list {
		names := make([]string, 0, len(b.Authors))
		for _, a := range b.Authors {
			if a.Author != nil {
				names = append(names, a.Author.Name)
			}
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", b.ID, b.Title, strings.Join(names, ", "), b.Filepath)
	}
	return nil
}

func listAuthorsAction(c *cli.Context, _ *config.Config, db *bun.DB) error {
	list, err := authors.NewService(db).ListAuthors(c.Context, authors.ListAuthorsOptions{})
	if err != nil {
		return err
	}
	for _, a := range list {
		fmt.Printf("%s\t%s\n", a.ID, a.Name)
	}
	return nil
}

func listSeriesAction(c *cli.Context, _ *config.Config, db *bun.DB) error {
	list, err := series.NewService(db).ListSeries(c.Context, series.ListSeriesOptions{})
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Printf("%s\t%s\t%d books\n", s.ID, s.Name, len(s.BookIDs))
	}
	return nil
}
