// Package googlebooks adapts the Google Books volumes API to the metadata
// provider interfaces.
package googlebooks

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/samanbooks/samanbooks/pkg/htmlutil"
	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/samanbooks/samanbooks/pkg/identifiers"
	"github.com/samanbooks/samanbooks/pkg/metadata"
)

const (
	Name = "googlebooks"

	DefaultBaseURL      = "https://www.googleapis.com/books/v1"
	DefaultCoverBaseURL = "https://books.google.com/books/content"
)

// Dates are "YYYY", "YYYY-MM" or "YYYY-MM-DD", with the odd "19??".
var yearRE = regexp.MustCompile(`^\d{4}`)

func yearOf(date string) string {
	return yearRE.FindString(date)
}

// BookProvider searches Google Books volumes. Volumes have no separate
// work and edition concepts, so both detail lookups fetch the volume.
type BookProvider struct {
	client  *httputil.Client
	baseURL string
	apiKey  string
}

var _ metadata.BookProvider = (*BookProvider)(nil)

// NewBookProvider returns a BookProvider. apiKey is optional; anonymous
// requests get a lower quota.
func NewBookProvider(client *httputil.Client, baseURL, apiKey string) *BookProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &BookProvider{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (*BookProvider) Name() string { return Name }

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Description         string   `json:"description"`
		PageCount           int      `json:"pageCount"`
		Categories          []string `json:"categories"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

func (p *BookProvider) withKey(u string) string {
	if p.apiKey == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "key=" + url.QueryEscape(p.apiKey)
}

func (p *BookProvider) search(ctx context.Context, q string) ([]*metadata.Record, error) {
	var resp volumesResponse
	if err := p.client.GetJSON(ctx, Name, p.withKey(p.baseURL+"/volumes?q="+url.QueryEscape(q)), &resp); err != nil {
		return nil, err
	}
	records := make([]*metadata.Record, 0, len(resp.Items))
	for _, v := range resp.Items {
		records = append(records, volumeRecord(v))
	}
	return records, nil
}

func (p *BookProvider) first(ctx context.Context, q string) (*metadata.Record, error) {
	records, err := p.search(ctx, q)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (p *BookProvider) SearchByISBN(ctx context.Context, isbn string) (*metadata.Record, error) {
	isbn = identifiers.NormalizeISBN(isbn)
	if isbn == "" {
		return nil, nil
	}
	return p.first(ctx, "isbn:"+isbn)
}

func (p *BookProvider) SearchByTitle(ctx context.Context, title string) (*metadata.Record, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	return p.first(ctx, "intitle:"+title)
}

func (p *BookProvider) SearchByAuthor(ctx context.Context, author string) ([]*metadata.Record, error) {
	if strings.TrimSpace(author) == "" {
		return nil, nil
	}
	return p.search(ctx, "inauthor:"+author)
}

func (p *BookProvider) SearchByQuery(ctx context.Context, query string) ([]*metadata.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return p.search(ctx, query)
}

func (p *BookProvider) volume(ctx context.Context, id string) (*volume, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var v volume
	if err := p.client.GetJSON(ctx, Name, p.withKey(p.baseURL+"/volumes/"+url.PathEscape(id)), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *BookProvider) GetWorkDetails(ctx context.Context, key string) (*metadata.WorkRecord, error) {
	v, err := p.volume(ctx, key)
	if err != nil || v == nil {
		return nil, err
	}
	rec := volumeRecord(*v)
	return &metadata.WorkRecord{
		Key:              rec.Key,
		Title:            rec.Title,
		Description:      rec.Description,
		FirstPublishYear: rec.Year,
		Subjects:         v.VolumeInfo.Categories,
		CoverURL:         rec.CoverURL,
	}, nil
}

func (p *BookProvider) GetEditionDetails(ctx context.Context, key string) (*metadata.Record, error) {
	v, err := p.volume(ctx, key)
	if err != nil || v == nil {
		return nil, err
	}
	return volumeRecord(*v), nil
}

func volumeRecord(v volume) *metadata.Record {
	info := v.VolumeInfo
	rec := &metadata.Record{
		Title:       info.Title,
		Authors:     info.Authors,
		Publisher:   info.Publisher,
		PublishDate: info.PublishedDate,
		Description: htmlutil.StripTags(info.Description),
		CoverURL:    info.ImageLinks.Thumbnail,
		Key:         v.ID,
		Source:      Name,
	}
	rec.Year = yearOf(info.PublishedDate)
	if info.PageCount > 0 {
		pages := info.PageCount
		rec.PageCount = &pages
	}
	// ISBN-13 over ISBN-10 regardless of listing order.
	for _, kind := range []string{"ISBN_13", "ISBN_10"} {
		for _, id := range info.IndustryIdentifiers {
			if id.Type == kind && rec.ISBN == "" {
				rec.ISBN = identifiers.NormalizeISBN(id.Identifier)
			}
		}
	}
	return rec
}

// CoverProvider templates Google Books cover URLs.
type CoverProvider struct {
	baseURL string
}

var _ metadata.CoverProvider = (*CoverProvider)(nil)

func NewCoverProvider(baseURL string) *CoverProvider {
	if baseURL == "" {
		baseURL = DefaultCoverBaseURL
	}
	return &CoverProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

func zoom(size metadata.CoverSize) int {
	switch size {
	case metadata.CoverSmall:
		return 1
	case metadata.CoverMedium:
		return 2
	case metadata.CoverLarge:
	}
	return 3
}

func (c *CoverProvider) CoverByISBN(isbn string, size metadata.CoverSize) string {
	isbn = identifiers.NormalizeISBN(isbn)
	if isbn == "" {
		return ""
	}
	return fmt.Sprintf("%s?vid=ISBN%s&printsec=frontcover&img=1&zoom=%d", c.baseURL, isbn, zoom(size))
}

// CoverByID takes a Google Books volume id.
func (c *CoverProvider) CoverByID(id string, size metadata.CoverSize) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s?id=%s&printsec=frontcover&img=1&zoom=%d", c.baseURL, url.QueryEscape(id), zoom(size))
}
