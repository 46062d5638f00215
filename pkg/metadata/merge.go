package metadata

import (
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/pathmeta"
)

// MergeLocal combines what the path and the file contents say about a
// book. Content wins over the filename, which wins over folders, for title,
// authors and year. Series prefers the folder. Everything else only comes
// from content. content may be nil.
func MergeLocal(path pathmeta.Metadata, content *mediafile.ParsedMetadata) *Record {
	if content == nil {
		content = &mediafile.ParsedMetadata{}
	}

	rec := &Record{
		Title:       firstNonEmpty(content.Title, path.Title),
		Series:      firstNonEmpty(path.Series, content.Series),
		Year:        firstNonEmpty(content.Year, path.Year),
		Publisher:   content.Publisher,
		PublishDate: content.ReleaseDate,
		Description: content.Description,
		ISBN:        content.ISBN,
		PageCount:   content.PageCount,
		CoverData:   content.CoverData,
		CoverHash:   content.CoverHash,
	}

	switch {
	case len(content.Authors) > 0:
		rec.Authors = append([]string(nil), content.Authors...)
	case len(path.Authors) > 0:
		rec.Authors = append([]string(nil), path.Authors...)
	case path.Author != "":
		rec.Authors = []string{path.Author}
	}

	return rec
}

// overlay copies the non-empty fields of remote over local. The cover URL
// is left to the caller.
func overlay(local, remote *Record) *Record {
	merged := *local
	if remote == nil {
		return &merged
	}
	if remote.Title != "" {
		merged.Title = remote.Title
	}
	if len(remote.Authors) > 0 {
		merged.Authors = append([]string(nil), remote.Authors...)
	}
	if remote.Series != "" {
		merged.Series = remote.Series
	}
	if remote.Publisher != "" {
		merged.Publisher = remote.Publisher
	}
	if remote.Year != "" {
		merged.Year = remote.Year
	}
	if remote.PublishDate != "" {
		merged.PublishDate = remote.PublishDate
	}
	if remote.Description != "" {
		merged.Description = remote.Description
	}
	if remote.ISBN != "" {
		merged.ISBN = remote.ISBN
	}
	if remote.PageCount != nil {
		merged.PageCount = remote.PageCount
	}
	merged.Key = remote.Key
	merged.Source = remote.Source
	return &merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
