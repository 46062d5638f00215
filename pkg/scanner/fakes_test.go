package scanner

import (
	"context"

	"github.com/samanbooks/samanbooks/pkg/metadata"
)

type fakeBookProvider struct {
	name   string
	byISBN map[string]*metadata.Record
	err    error
	calls  int
}

func (p *fakeBookProvider) Name() string { return p.name }

func (p *fakeBookProvider) SearchByISBN(_ context.Context, isbn string) (*metadata.Record, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.byISBN[isbn], nil
}

func (p *fakeBookProvider) SearchByTitle(_ context.Context, _ string) (*metadata.Record, error) {
	p.calls++
	return nil, p.err
}

func (p *fakeBookProvider) SearchByAuthor(context.Context, string) ([]*metadata.Record, error) {
	return nil, nil
}

func (p *fakeBookProvider) SearchByQuery(context.Context, string) ([]*metadata.Record, error) {
	return nil, nil
}

func (p *fakeBookProvider) GetWorkDetails(context.Context, string) (*metadata.WorkRecord, error) {
	return nil, nil
}

func (p *fakeBookProvider) GetEditionDetails(context.Context, string) (*metadata.Record, error) {
	return nil, nil
}

type fakeAuthorProvider struct {
	records map[string]*metadata.AuthorRecord
}

func (p *fakeAuthorProvider) Name() string { return "fake" }

func (p *fakeAuthorProvider) SearchAuthor(_ context.Context, name string) ([]*metadata.AuthorRecord, error) {
	var out []*metadata.AuthorRecord
	for _, r := range p.records {
		out = append(out, &metadata.AuthorRecord{Key: r.Key, Name: r.Name})
	}
	return out, nil
}

func (p *fakeAuthorProvider) GetAuthorDetails(_ context.Context, key string) (*metadata.AuthorRecord, error) {
	return p.records[key], nil
}

func (p *fakeAuthorProvider) GetAuthorWorks(context.Context, string, int) ([]*metadata.WorkRecord, error) {
	return nil, nil
}

func (p *fakeAuthorProvider) GetWorkDetails(context.Context, string) (*metadata.WorkRecord, error) {
	return nil, nil
}
