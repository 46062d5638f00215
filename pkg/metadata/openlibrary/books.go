package openlibrary

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samanbooks/samanbooks/pkg/htmlutil"
	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/samanbooks/samanbooks/pkg/identifiers"
	"github.com/samanbooks/samanbooks/pkg/metadata"
)

// BookProvider looks books up through Open Library's books, search, works
// and editions endpoints.
type BookProvider struct {
	api
	coverBaseURL string
}

var _ metadata.BookProvider = (*BookProvider)(nil)

// NewBookProvider returns a BookProvider. Empty base URLs use the public
// Open Library hosts.
func NewBookProvider(client *httputil.Client, baseURL, coverBaseURL string) *BookProvider {
	if coverBaseURL == "" {
		coverBaseURL = DefaultCoverBaseURL
	}
	return &BookProvider{api: newAPI(client, baseURL), coverBaseURL: strings.TrimRight(coverBaseURL, "/")}
}

func (*BookProvider) Name() string { return Name }

type bibEntry struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate   string `json:"publish_date"`
	Notes         text   `json:"notes"`
	NumberOfPages int    `json:"number_of_pages"`
	Cover         struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// SearchByISBN uses the books API (jscmd=data), which answers with an
// empty object when the ISBN is unknown.
func (p *BookProvider) SearchByISBN(ctx context.Context, isbn string) (*metadata.Record, error) {
	isbn = identifiers.NormalizeISBN(isbn)
	if isbn == "" {
		return nil, nil
	}
	bibkey := "ISBN:" + isbn
	var resp map[string]bibEntry
	path := "/api/books?bibkeys=" + url.QueryEscape(bibkey) + "&format=json&jscmd=data"
	if err := p.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	entry, ok := resp[bibkey]
	if !ok {
		return nil, nil
	}

	rec := &metadata.Record{
		Title:       entry.Title,
		PublishDate: entry.PublishDate,
		Year:        yearOf(entry.PublishDate),
		Description: htmlutil.StripTags(string(entry.Notes)),
		ISBN:        isbn,
		CoverURL:    entry.Cover.Large,
		Key:         stripKey(entry.Key),
		Source:      Name,
	}
	for _, a := range entry.Authors {
		if a.Name != "" {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}
	if len(entry.Publishers) > 0 {
		rec.Publisher = entry.Publishers[0].Name
	}
	if entry.NumberOfPages > 0 {
		pages := entry.NumberOfPages
		rec.PageCount = &pages
	}
	return rec, nil
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	Publisher        []string `json:"publisher"`
	CoverI           int      `json:"cover_i"`
	PagesMedian      int      `json:"number_of_pages_median"`
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

func (p *BookProvider) search(ctx context.Context, field, value string) ([]*metadata.Record, error) {
	var resp searchResponse
	if err := p.get(ctx, "/search.json?"+field+"="+url.QueryEscape(value), &resp); err != nil {
		return nil, err
	}
	records := make([]*metadata.Record, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		records = append(records, p.docRecord(doc))
	}
	return records, nil
}

func (p *BookProvider) docRecord(doc searchDoc) *metadata.Record {
	rec := &metadata.Record{
		Title:     doc.Title,
		Authors:   doc.AuthorName,
		Publisher: firstOf(doc.Publisher),
		Key:       stripKey(doc.Key),
		Source:    Name,
	}
	if doc.FirstPublishYear > 0 {
		rec.Year = strconv.Itoa(doc.FirstPublishYear)
	}
	for _, isbn := range doc.ISBN {
		if identifiers.IsISBN(isbn) {
			rec.ISBN = identifiers.NormalizeISBN(isbn)
			break
		}
	}
	if doc.CoverI > 0 {
		rec.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", p.coverBaseURL, doc.CoverI)
	}
	if doc.PagesMedian > 0 {
		pages := doc.PagesMedian
		rec.PageCount = &pages
	}
	return rec
}

// SearchByTitle returns the most relevant search hit.
func (p *BookProvider) SearchByTitle(ctx context.Context, title string) (*metadata.Record, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	records, err := p.search(ctx, "title", title)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (p *BookProvider) SearchByAuthor(ctx context.Context, author string) ([]*metadata.Record, error) {
	if strings.TrimSpace(author) == "" {
		return nil, nil
	}
	return p.search(ctx, "author", author)
}

func (p *BookProvider) SearchByQuery(ctx context.Context, query string) ([]*metadata.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return p.search(ctx, "q", query)
}

type work struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Description      text     `json:"description"`
	FirstPublishDate string   `json:"first_publish_date"`
	Subjects         []string `json:"subjects"`
	Covers           []int    `json:"covers"`
	Authors          []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
}

func (p *BookProvider) GetWorkDetails(ctx context.Context, key string) (*metadata.WorkRecord, error) {
	return getWork(ctx, p.api, p.coverBaseURL, key)
}

func getWork(ctx context.Context, a api, coverBaseURL, key string) (*metadata.WorkRecord, error) {
	key = stripKey(key)
	if key == "" {
		return nil, nil
	}
	var w work
	if err := a.get(ctx, "/works/"+url.PathEscape(key)+".json", &w); err != nil {
		return nil, err
	}
	return workRecord(w, coverBaseURL), nil
}

func workRecord(w work, coverBaseURL string) *metadata.WorkRecord {
	rec := &metadata.WorkRecord{
		Key:              stripKey(w.Key),
		Title:            w.Title,
		Description:      htmlutil.StripTags(string(w.Description)),
		FirstPublishYear: yearOf(w.FirstPublishDate),
		Subjects:         w.Subjects,
	}
	for _, c := range w.Covers {
		if c > 0 {
			rec.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", coverBaseURL, c)
			break
		}
	}
	for _, a := range w.Authors {
		if a.Author.Key != "" {
			rec.AuthorKeys = append(rec.AuthorKeys, stripKey(a.Author.Key))
		}
	}
	return rec
}

type edition struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	ISBN13        []string `json:"isbn_13"`
	ISBN10        []string `json:"isbn_10"`
	NumberOfPages int      `json:"number_of_pages"`
	Covers        []int    `json:"covers"`
	Description   text     `json:"description"`
}

// GetEditionDetails fetches one edition. Editions only reference authors by
// key, so the record has no author names.
func (p *BookProvider) GetEditionDetails(ctx context.Context, key string) (*metadata.Record, error) {
	key = stripKey(key)
	if key == "" {
		return nil, nil
	}
	var e edition
	if err := p.get(ctx, "/books/"+url.PathEscape(key)+".json", &e); err != nil {
		return nil, err
	}
	rec := &metadata.Record{
		Title:       e.Title,
		Publisher:   firstOf(e.Publishers),
		PublishDate: e.PublishDate,
		Year:        yearOf(e.PublishDate),
		Description: htmlutil.StripTags(string(e.Description)),
		ISBN:        identifiers.NormalizeISBN(firstOf(append(e.ISBN13, e.ISBN10...))),
		Key:         stripKey(e.Key),
		Source:      Name,
	}
	if e.NumberOfPages > 0 {
		pages := e.NumberOfPages
		rec.PageCount = &pages
	}
	for _, c := range e.Covers {
		if c > 0 {
			rec.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", p.coverBaseURL, c)
			break
		}
	}
	return rec, nil
}
