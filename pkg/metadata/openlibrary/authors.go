package openlibrary

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samanbooks/samanbooks/pkg/htmlutil"
	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/samanbooks/samanbooks/pkg/metadata"
)

const defaultWorksLimit = 100

// AuthorProvider looks authors up through Open Library's author endpoints.
type AuthorProvider struct {
	api
	coverBaseURL string
}

var _ metadata.AuthorProvider = (*AuthorProvider)(nil)

func NewAuthorProvider(client *httputil.Client, baseURL, coverBaseURL string) *AuthorProvider {
	if coverBaseURL == "" {
		coverBaseURL = DefaultCoverBaseURL
	}
	return &AuthorProvider{api: newAPI(client, baseURL), coverBaseURL: strings.TrimRight(coverBaseURL, "/")}
}

func (*AuthorProvider) Name() string { return Name }

type authorDoc struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
	TopWork   string `json:"top_work"`
	WorkCount int    `json:"work_count"`
}

func (p *AuthorProvider) SearchAuthor(ctx context.Context, name string) ([]*metadata.AuthorRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	var resp struct {
		Docs []authorDoc `json:"docs"`
	}
	if err := p.get(ctx, "/search/authors.json?q="+url.QueryEscape(name), &resp); err != nil {
		return nil, err
	}
	records := make([]*metadata.AuthorRecord, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		records = append(records, &metadata.AuthorRecord{
			Key:       stripKey(d.Key),
			Name:      d.Name,
			BirthDate: d.BirthDate,
			DeathDate: d.DeathDate,
			TopWork:   d.TopWork,
			WorkCount: d.WorkCount,
		})
	}
	return records, nil
}

type authorDetails struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Bio       text   `json:"bio"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
	Photos    []int  `json:"photos"`
	Links     []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"links"`
	Wikipedia string `json:"wikipedia"`
}

func (p *AuthorProvider) GetAuthorDetails(ctx context.Context, key string) (*metadata.AuthorRecord, error) {
	key = stripKey(key)
	if key == "" {
		return nil, nil
	}
	var d authorDetails
	if err := p.get(ctx, "/authors/"+url.PathEscape(key)+".json", &d); err != nil {
		return nil, err
	}
	rec := &metadata.AuthorRecord{
		Key:       stripKey(d.Key),
		Name:      d.Name,
		Biography: htmlutil.StripTags(string(d.Bio)),
		BirthDate: d.BirthDate,
		DeathDate: d.DeathDate,
	}
	if rec.Key == "" {
		rec.Key = key
	}
	for _, photo := range d.Photos {
		if photo > 0 {
			rec.PhotoURL = fmt.Sprintf("%s/a/id/%d-L.jpg", p.coverBaseURL, photo)
			break
		}
	}
	links := map[string]string{}
	for _, l := range d.Links {
		if l.URL != "" {
			title := l.Title
			if title == "" {
				title = l.URL
			}
			links[title] = l.URL
		}
	}
	if d.Wikipedia != "" {
		links["wikipedia"] = d.Wikipedia
	}
	if len(links) > 0 {
		rec.Links = links
	}
	return rec, nil
}

func (p *AuthorProvider) GetAuthorWorks(ctx context.Context, key string, limit int) ([]*metadata.WorkRecord, error) {
	key = stripKey(key)
	if key == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultWorksLimit
	}
	var resp struct {
		Entries []work `json:"entries"`
	}
	path := fmt.Sprintf("/authors/%s/works.json?limit=%d", url.PathEscape(key), limit)
	if err := p.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	records := make([]*metadata.WorkRecord, 0, len(resp.Entries))
	for _, w := range resp.Entries {
		records = append(records, workRecord(w, p.coverBaseURL))
	}
	return records, nil
}

func (p *AuthorProvider) GetWorkDetails(ctx context.Context, key string) (*metadata.WorkRecord, error) {
	return getWork(ctx, p.api, p.coverBaseURL, key)
}
