package metadata

import (
	"context"
	"testing"

	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookProvider struct {
	name       string
	byISBN     map[string]*Record
	byTitle    map[string]*Record
	err        error
	isbnCalls  int
	titleCalls int
}

func (f *fakeBookProvider) Name() string { return f.name }

func (f *fakeBookProvider) SearchByISBN(_ context.Context, isbn string) (*Record, error) {
	f.isbnCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byISBN[isbn], nil
}

func (f *fakeBookProvider) SearchByTitle(_ context.Context, title string) (*Record, error) {
	f.titleCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byTitle[title], nil
}

func (f *fakeBookProvider) SearchByAuthor(context.Context, string) ([]*Record, error) {
	return nil, nil
}

func (f *fakeBookProvider) SearchByQuery(context.Context, string) ([]*Record, error) {
	return nil, nil
}

func (f *fakeBookProvider) GetWorkDetails(context.Context, string) (*WorkRecord, error) {
	return nil, nil
}

func (f *fakeBookProvider) GetEditionDetails(context.Context, string) (*Record, error) {
	return nil, nil
}

type fakeCovers struct{}

func (fakeCovers) CoverByISBN(isbn string, size CoverSize) string {
	if isbn == "" {
		return ""
	}
	return "https://covers.test/isbn/" + isbn + "-" + string(size) + ".jpg"
}

func (fakeCovers) CoverByID(id string, size CoverSize) string {
	if id == "" {
		return ""
	}
	return "https://covers.test/id/" + id + "-" + string(size) + ".jpg"
}

func TestEnrich_ISBNShortCircuits(t *testing.T) {
	t.Parallel()
	first := &fakeBookProvider{name: "first", byISBN: map[string]*Record{
		"9780000000002": {Title: "Foundation", Authors: []string{"Isaac Asimov"}, Publisher: "Gnome Press"},
	}}
	second := &fakeBookProvider{name: "second", byISBN: map[string]*Record{
		"9780000000002": {Title: "Wrong"},
	}}

	e := NewEnricher([]BookProvider{first, second}, fakeCovers{}, CoverLarge)
	rec, outcome := e.Enrich(context.Background(), &Record{Title: "foundation", ISBN: "9780000000002"})

	assert.Equal(t, 1, first.isbnCalls)
	assert.Equal(t, 0, second.isbnCalls)
	assert.Equal(t, 0, first.titleCalls)
	assert.Equal(t, "Foundation", rec.Title)
	assert.Equal(t, "Gnome Press", rec.Publisher)
	assert.Equal(t, "first", outcome.Source)
	assert.Equal(t, MethodISBN, outcome.Method)
	assert.Equal(t, "https://covers.test/isbn/9780000000002-L.jpg", rec.CoverURL)
}

func TestEnrich_ISBNPassBeforeTitlePass(t *testing.T) {
	t.Parallel()
	first := &fakeBookProvider{name: "first", byTitle: map[string]*Record{
		"Foundation": {Title: "Foundation (title match)"},
	}}
	second := &fakeBookProvider{name: "second", byISBN: map[string]*Record{
		"9780000000002": {Title: "Foundation (isbn match)"},
	}}

	e := NewEnricher([]BookProvider{first, second}, nil, CoverLarge)
	rec, outcome := e.Enrich(context.Background(), &Record{Title: "Foundation", ISBN: "9780000000002"})

	assert.Equal(t, "Foundation (isbn match)", rec.Title)
	assert.Equal(t, "second", outcome.Source)
	assert.Equal(t, 0, first.titleCalls)
}

func TestEnrich_FallsBackToTitle(t *testing.T) {
	t.Parallel()
	first := &fakeBookProvider{name: "first"}
	second := &fakeBookProvider{name: "second", byTitle: map[string]*Record{
		"Dune": {Title: "Dune", Authors: []string{"Frank Herbert"}, CoverURL: "https://remote/dune.jpg"},
	}}

	e := NewEnricher([]BookProvider{first, second}, fakeCovers{}, CoverMedium)
	rec, outcome := e.Enrich(context.Background(), &Record{Title: "Dune"})

	assert.Equal(t, 0, first.isbnCalls)
	assert.Equal(t, 1, first.titleCalls)
	assert.Equal(t, []string{"Frank Herbert"}, rec.Authors)
	assert.Equal(t, MethodTitle, outcome.Method)
	assert.Equal(t, "https://remote/dune.jpg", rec.CoverURL)
}

func TestEnrich_ProviderFailureIsNoResult(t *testing.T) {
	t.Parallel()
	failing := &fakeBookProvider{name: "failing", err: errcodes.TransportFailed("failing", "unexpected status 500")}
	working := &fakeBookProvider{name: "working", byISBN: map[string]*Record{
		"0316769487": {Title: "The Catcher in the Rye"},
	}}

	e := NewEnricher([]BookProvider{failing, working}, nil, CoverLarge)
	rec, outcome := e.Enrich(context.Background(), &Record{ISBN: "0316769487"})

	assert.Equal(t, "The Catcher in the Rye", rec.Title)
	assert.Equal(t, "working", outcome.Source)
}

func TestEnrich_NoMatchKeepsLocal(t *testing.T) {
	t.Parallel()
	pages := 100
	local := &Record{
		Title:     "Unknown Book",
		Authors:   []string{"Nobody"},
		Year:      "2001",
		PageCount: &pages,
		CoverHash: "abc",
	}

	e := NewEnricher([]BookProvider{&fakeBookProvider{name: "empty"}}, fakeCovers{}, CoverLarge)
	rec, outcome := e.Enrich(context.Background(), local)

	assert.False(t, outcome.Matched())
	assert.Equal(t, "Unknown Book", rec.Title)
	assert.Equal(t, []string{"Nobody"}, rec.Authors)
	assert.Equal(t, "2001", rec.Year)
	assert.Equal(t, &pages, rec.PageCount)
	assert.Equal(t, "abc", rec.CoverHash)
	assert.Empty(t, rec.CoverURL)
}

func TestEnrich_EmptyResultSkipped(t *testing.T) {
	t.Parallel()
	first := &fakeBookProvider{name: "first", byISBN: map[string]*Record{"123": {}}}
	second := &fakeBookProvider{name: "second", byISBN: map[string]*Record{"123": {Title: "Real"}}}

	e := NewEnricher([]BookProvider{first, second}, nil, CoverLarge)
	rec, outcome := e.Enrich(context.Background(), &Record{ISBN: "123"})
	assert.Equal(t, "Real", rec.Title)
	assert.Equal(t, "second", outcome.Source)
}

func TestEnrich_CoverFromRemoteISBN(t *testing.T) {
	t.Parallel()
	p := &fakeBookProvider{name: "p", byTitle: map[string]*Record{
		"Emma": {Title: "Emma", ISBN: "9780141439587"},
	}}

	e := NewEnricher([]BookProvider{p}, fakeCovers{}, CoverSmall)
	rec, _ := e.Enrich(context.Background(), &Record{Title: "Emma"})
	assert.Equal(t, "https://covers.test/isbn/9780141439587-S.jpg", rec.CoverURL)
	assert.Equal(t, "9780141439587", rec.ISBN)
}

func TestEnrich_EmptyFieldsDoNotOverride(t *testing.T) {
	t.Parallel()
	p := &fakeBookProvider{name: "p", byISBN: map[string]*Record{
		"9780000000002": {Title: "Remote Title", Description: ""},
	}}

	e := NewEnricher([]BookProvider{p}, nil, CoverLarge)
	rec, _ := e.Enrich(context.Background(), &Record{
		ISBN:        "9780000000002",
		Description: "local description",
		Authors:     []string{"Local Author"},
	})
	require.NotNil(t, rec)
	assert.Equal(t, "Remote Title", rec.Title)
	assert.Equal(t, "local description", rec.Description)
	assert.Equal(t, []string{"Local Author"}, rec.Authors)
}

func TestParseCoverSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CoverSmall, ParseCoverSize("s"))
	assert.Equal(t, CoverMedium, ParseCoverSize("M"))
	assert.Equal(t, CoverLarge, ParseCoverSize("L"))
	assert.Equal(t, CoverLarge, ParseCoverSize("huge"))
}
