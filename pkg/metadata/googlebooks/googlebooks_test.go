package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/samanbooks/samanbooks/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hobbitVolume = `{
	"id": "pD6arNyKyi8C",
	"volumeInfo": {
		"title": "The Hobbit",
		"authors": ["J.R.R. Tolkien"],
		"publisher": "HarperCollins",
		"publishedDate": "2012-02-15",
		"description": "<p>A great modern classic.</p>",
		"pageCount": 300,
		"categories": ["Fiction"],
		"industryIdentifiers": [
			{"type": "ISBN_10", "identifier": "0007458428"},
			{"type": "ISBN_13", "identifier": "9780007458424"}
		],
		"imageLinks": {"thumbnail": "http://books.google.com/thumb.jpg"}
	}
}`

func newTestServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSearchByISBN(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes?q=isbn%3A9780007458424": `{"totalItems": 1, "items": [` + hobbitVolume + `]}`,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	rec, err := p.SearchByISBN(context.Background(), "978-0-00-745842-4")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "The Hobbit", rec.Title)
	assert.Equal(t, []string{"J.R.R. Tolkien"}, rec.Authors)
	assert.Equal(t, "HarperCollins", rec.Publisher)
	assert.Equal(t, "2012", rec.Year)
	assert.Equal(t, "2012-02-15", rec.PublishDate)
	assert.Equal(t, "A great modern classic.", rec.Description)
	assert.Equal(t, "9780007458424", rec.ISBN)
	assert.Equal(t, "http://books.google.com/thumb.jpg", rec.CoverURL)
	assert.Equal(t, "pD6arNyKyi8C", rec.Key)
	assert.Equal(t, Name, rec.Source)
	require.NotNil(t, rec.PageCount)
	assert.Equal(t, 300, *rec.PageCount)
}

func TestSearchByISBN_UnknownYear(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes?q=isbn%3A9780007458424": `{"items": [{"id": "x", "volumeInfo": {"title": "The Hobbit", "publishedDate": "19??"}}]}`,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	rec, err := p.SearchByISBN(context.Background(), "9780007458424")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Year)
	assert.Equal(t, "19??", rec.PublishDate)

	// An unknown year doesn't replace the one read from the file.
	merged, _ := metadata.NewEnricher([]metadata.BookProvider{p}, nil, metadata.CoverLarge).
		Enrich(context.Background(), &metadata.Record{Title: "The Hobbit", ISBN: "9780007458424", Year: "1937"})
	assert.Equal(t, "1937", merged.Year)
}

func TestSearchByTitle_WithAPIKey(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes?q=intitle%3Athe+hobbit&key=secret": `{"items": [` + hobbitVolume + `]}`,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "secret")

	rec, err := p.SearchByTitle(context.Background(), "the hobbit")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "The Hobbit", rec.Title)
}

func TestSearch_NoItems(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes?q=intitle%3Anothing": `{"totalItems": 0}`,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	rec, err := p.SearchByTitle(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSearchByAuthorAndQuery(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes?q=inauthor%3Atolkien": `{"items": [` + hobbitVolume + `, {"id": "x", "volumeInfo": {"title": "The Silmarillion"}}]}`,
		"/volumes?q=hobbit":             `{"items": [` + hobbitVolume + `]}`,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	byAuthor, err := p.SearchByAuthor(context.Background(), "tolkien")
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)
	assert.Equal(t, "The Silmarillion", byAuthor[1].Title)
	assert.Empty(t, byAuthor[1].ISBN)

	byQuery, err := p.SearchByQuery(context.Background(), "hobbit")
	require.NoError(t, err)
	assert.Len(t, byQuery, 1)
}

func TestVolumeDetails(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, map[string]string{
		"/volumes/pD6arNyKyi8C": hobbitVolume,
	})
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	edition, err := p.GetEditionDetails(context.Background(), "pD6arNyKyi8C")
	require.NoError(t, err)
	require.NotNil(t, edition)
	assert.Equal(t, "9780007458424", edition.ISBN)

	work, err := p.GetWorkDetails(context.Background(), "pD6arNyKyi8C")
	require.NoError(t, err)
	require.NotNil(t, work)
	assert.Equal(t, "The Hobbit", work.Title)
	assert.Equal(t, "2012", work.FirstPublishYear)
	assert.Equal(t, []string{"Fiction"}, work.Subjects)
}

func TestServerError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	p := NewBookProvider(httputil.New(httputil.Options{}), ts.URL, "")

	rec, err := p.SearchByISBN(context.Background(), "9780007458424")
	assert.Nil(t, rec)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeTransportFailed))
}

func TestCoverProvider(t *testing.T) {
	t.Parallel()
	c := NewCoverProvider("")

	assert.Equal(t,
		"https://books.google.com/books/content?vid=ISBN9780007458424&printsec=frontcover&img=1&zoom=3",
		c.CoverByISBN("9780007458424", metadata.CoverLarge))
	assert.Equal(t,
		"https://books.google.com/books/content?id=pD6arNyKyi8C&printsec=frontcover&img=1&zoom=1",
		c.CoverByID("pD6arNyKyi8C", metadata.CoverSmall))
	assert.Empty(t, c.CoverByISBN("", metadata.CoverLarge))
	assert.Empty(t, c.CoverByID("", metadata.CoverLarge))
}
