// Package scanner walks a library directory and registers every supported
// file it finds as a book, creating its authors and series on the way.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samanbooks/samanbooks/pkg/authors"
	"github.com/samanbooks/samanbooks/pkg/books"
	"github.com/samanbooks/samanbooks/pkg/epub"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/metadata"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/samanbooks/samanbooks/pkg/pathmeta"
	"github.com/samanbooks/samanbooks/pkg/pdf"
	"github.com/samanbooks/samanbooks/pkg/series"
	"github.com/uptrace/bun"
)

var yearRE = regexp.MustCompile(`^\d{4}$`)

// Extractor reads embedded metadata out of one kind of file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*mediafile.ParsedMetadata, error)
}

type Options struct {
	// IgnoredFolders are folder names that never count as author, series or
	// year. Nil uses the inferrer's defaults.
	IgnoredFolders []string
	// NameMatch is authors.MatchExact (the default) or
	// authors.MatchSubstring.
	NameMatch string
	// SkipExistingPaths skips files whose path is already registered.
	SkipExistingPaths bool
	// Enricher looks books up in external providers. Nil disables
	// enrichment.
	Enricher *metadata.Enricher
	// AuthorProvider, when set, is used to fill in details for newly
	// created authors.
	AuthorProvider metadata.AuthorProvider
}

// Failure is a file that could not be registered.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result counts what a scan did. Scanned is every regular file seen;
// Ignored are the ones with an unsupported format.
type Result struct {
	Scanned    int        `json:"scanned"`
	Registered int        `json:"registered"`
	Ignored    int        `json:"ignored"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Failures   []*Failure `json:"failures,omitempty"`
}

type Scanner struct {
	db            *bun.DB
	bookService   *books.Service
	authorService *authors.Service
	seriesService *series.Service

	extractors     map[models.Format]Extractor
	enricher       *metadata.Enricher
	authorProvider metadata.AuthorProvider
	ignored        []string
	skipExisting   bool
}

func New(db *bun.DB, opts Options) *Scanner {
	return &Scanner{
		db:            db,
		bookService:   books.NewService(db),
		authorService: authors.NewService(db).WithNameMatch(opts.NameMatch),
		seriesService: series.NewService(db).WithNameMatch(opts.NameMatch),
		extractors: map[models.Format]Extractor{
			models.FormatEPUB: epub.NewExtractor(),
			models.FormatPDF:  pdf.NewExtractor(),
		},
		enricher:       opts.Enricher,
		authorProvider: opts.AuthorProvider,
		ignored:        opts.IgnoredFolders,
		skipExisting:   opts.SkipExistingPaths,
	}
}

// ScanDirectory registers every supported file under root, one at a time.
// A file that fails is logged and counted, and the scan moves on. The
// returned error is only for a root that can't be walked or a cancelled
// context; the partial result is returned along with it.
func (s *Scanner) ScanDirectory(ctx context.Context, root string) (*Result, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"root": root})
	log.Info("starting scan")

	result := &Result{}
	filesToScan := make([]string, 0)

	err := filepath.WalkDir(root, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.WithStack(err)
			}
			log.Warn("can't read path", logger.Data{"path": path, "error": err.Error()})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Type().IsRegular() {
			return nil
		}
		result.Scanned++
		if mediafile.Classify(path) == models.FormatUnknown {
			result.Ignored++
			return nil
		}
		filesToScan = append(filesToScan, path)
		return nil
	})
	if err != nil {
		return result, err
	}

	inferrer := pathmeta.NewInferrer(root, s.ignored)
	cache := newScanCache()
	for i, path := range filesToScan {
		if err := ctx.Err(); err != nil {
			log.Warn("scan cancelled", logger.Data{"remaining": len(filesToScan) - i})
			return result, errors.WithStack(err)
		}

		book, err := s.scanFile(ctx, inferrer, cache, path)
		switch {
		case err != nil:
			log.Warn("failed to register file", logger.Data{"path": path, "error": err.Error()})
			result.Failed++
			result.Failures = append(result.Failures, &Failure{Path: path, Error: err.Error()})
		case book == nil:
			result.Skipped++
		default:
			result.Registered++
		}
	}

	log.Info("finished scan", logger.Data{
		"scanned":    result.Scanned,
		"registered": result.Registered,
		"ignored":    result.Ignored,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"authors":    cache.authorLookups(),
	})
	return result, nil
}

// ScanFile runs a single file through the pipeline, inferring folder
// metadata relative to root. It returns a nil book when the file was
// skipped because its path is already registered.
func (s *Scanner) ScanFile(ctx context.Context, root, path string) (*models.Book, error) {
	if mediafile.Classify(path) == models.FormatUnknown {
		return nil, errcodes.ValidationError("Unsupported file format.")
	}
	return s.scanFile(ctx, pathmeta.NewInferrer(root, s.ignored), newScanCache(), path)
}

func (s *Scanner) scanFile(ctx context.Context, inferrer *pathmeta.Inferrer, cache *scanCache, path string) (*models.Book, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	ctx = log.WithContext(ctx)

	if s.skipExisting {
		existing, err := s.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{Filepath: &path})
		if err != nil && !errcodes.HasCode(err, errcodes.CodeNotFound) {
			return nil, err
		}
		if existing != nil {
			log.Debug("path already registered", logger.Data{"book_id": existing.ID})
			return nil, nil
		}
	}

	format := mediafile.Classify(path)
	extractor, ok := s.extractors[format]
	if !ok {
		return nil, errcodes.ValidationError("Unsupported file format.")
	}
	content, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	local := metadata.MergeLocal(inferrer.Build(ctx, path), content)
	rec := local
	if s.enricher != nil {
		var outcome *metadata.Outcome
		rec, outcome = s.enricher.Enrich(ctx, local)
		if outcome.Matched() {
			log.Debug("enriched", logger.Data{"source": outcome.Source, "method": outcome.Method})
		}
	}

	var (
		book    *models.Book
		created []*models.Author
	)
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		book, created, err = s.register(ctx, tx, cache, path, format, rec)
		return err
	})
	if err != nil {
		cache.rollback()
		return nil, err
	}
	cache.commit()

	if s.authorProvider != nil {
		for _, author := range created {
			s.enrichAuthor(ctx, author)
		}
	}

	log.Info("registered book", logger.Data{"title": book.Title, "book_id": book.ID})
	return book, nil
}

// register resolves the record's authors and series and stores the book,
// all in tx. It also returns the authors it had to create.
func (s *Scanner) register(ctx context.Context, tx bun.Tx, cache *scanCache, path string, format models.Format, rec *metadata.Record) (*models.Book, []*models.Author, error) {
	authorIDs, created, err := s.resolveAuthors(ctx, cache, s.authorService.WithTx(tx), rec.Authors)
	if err != nil {
		return nil, nil, err
	}

	opts := books.RegisterBookOptions{
		Title:            rec.Title,
		AuthorIDs:        authorIDs,
		Filepath:         path,
		Format:           format,
		CoverFingerprint: coverFingerprint(rec),
		CoverURL:         optional(rec.CoverURL),
		ISBN:             optional(rec.ISBN),
		PublishDate:      optional(rec.PublishDate),
		Publisher:        optional(rec.Publisher),
		Description:      optional(rec.Description),
		PageCount:        rec.PageCount,
	}
	if yearRE.MatchString(rec.Year) {
		opts.Year = &rec.Year
	}

	if rec.Series != "" && len(authorIDs) > 0 {
		ser, _, err := s.seriesService.WithTx(tx).FindOrCreateSeries(ctx, rec.Series, authorIDs)
		if err != nil {
			return nil, nil, err
		}
		opts.SeriesID = &ser.ID
	}

	book, err := s.bookService.WithTx(tx).RegisterBook(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return book, created, nil
}

// resolveAuthors finds or creates an author per name, keeping name order
// and dropping repeats. It also returns the authors it created.
func (s *Scanner) resolveAuthors(ctx context.Context, cache *scanCache, svc AuthorFinder, names []string) ([]uuid.UUID, []*models.Author, error) {
	ids := make([]uuid.UUID, 0, len(names))
	var created []*models.Author
	seen := map[uuid.UUID]struct{}{}
	for _, name := range names {
		author, isNew, err := cache.findOrCreateAuthor(ctx, name, svc)
		if errcodes.HasCode(err, errcodes.CodeEmptyName) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if isNew {
			created = append(created, author)
		}
		if _, ok := seen[author.ID]; ok {
			continue
		}
		seen[author.ID] = struct{}{}
		ids = append(ids, author.ID)
	}
	return ids, created, nil
}

// coverFingerprint identifies the cover: a hash of the extracted bytes,
// else a hash of the resolved URL, else the no-cover marker.
func coverFingerprint(rec *metadata.Record) string {
	switch {
	case rec.CoverHash != "":
		return rec.CoverHash
	case len(rec.CoverData) > 0:
		return mediafile.Fingerprint(rec.CoverData)
	case rec.CoverURL != "":
		return mediafile.Fingerprint([]byte(rec.CoverURL))
	default:
		return models.NoCoverFingerprint
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
