// Package pathmeta infers book metadata from where a file sits in the
// library and from how it is named.
//
// Folder convention (relative to the library root, ignoring organizational
// folders such as "ePub" or "PDF"):
//
//	<author>/<series>/<year>/<file>
//
// Filename convention:
//
//	[Author One, Author Two] (1999) - Title.epub
package pathmeta

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robinjoseph08/golib/logger"
)

var (
	filenameRE     = regexp.MustCompile(`^\[(?P<authors>.+?)\](?:\s\((?P<year>\d{4})\))?\s*-\s*(?P<title>.+)`)
	authorSplitRE  = regexp.MustCompile(`[-,]`)
	folderYearRE   = regexp.MustCompile(`^\d{4}$`)
	authorsGroup   = filenameRE.SubexpIndex("authors")
	yearGroup      = filenameRE.SubexpIndex("year")
	titleGroup     = filenameRE.SubexpIndex("title")
	defaultIgnored = []string{"Libros", "ePub", "PDF", "biblioteca"}
)

// FolderMetadata is what the directory hierarchy says about a file. Empty
// strings mean the hierarchy didn't say.
type FolderMetadata struct {
	Author string
	Series string
	Year   string
	Title  string
}

// FilenameMetadata is what the filename says about a file.
type FilenameMetadata struct {
	Authors       []string
	PrimaryAuthor string
	Year          string
	Title         string
}

// Metadata combines FolderMetadata and FilenameMetadata.
type Metadata struct {
	Author  string
	Authors []string
	Series  string
	Year    string
	Title   string
}

type Inferrer struct {
	root    string
	ignored map[string]struct{}
}

// NewInferrer returns an Inferrer for files under root. Folder names in
// ignored (compared case-insensitively) never count as author, series or
// year; a nil ignored uses the default set. An empty root makes every
// ancestor of the path count.
func NewInferrer(root string, ignored []string) *Inferrer {
	if ignored == nil {
		ignored = defaultIgnored
	}
	set := make(map[string]struct{}, len(ignored))
	for _, name := range ignored {
		set[strings.ToLower(name)] = struct{}{}
	}
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Inferrer{root: root, ignored: set}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// folders returns the directory names between the root and the file,
// outermost first.
func (in *Inferrer) folders(path string) []string {
	dir := filepath.Dir(filepath.Clean(path))
	if in.root != "" {
		if rel, err := filepath.Rel(in.root, dir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			dir = rel
		}
	}

	var names []string
	for _, name := range strings.Split(filepath.ToSlash(dir), "/") {
		if name == "" || name == "." || strings.HasSuffix(name, ":") {
			continue
		}
		if _, ok := in.ignored[strings.ToLower(name)]; ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

// InferFromFolder applies the author/series/year folder convention. The
// title is always the filename stem.
func (in *Inferrer) InferFromFolder(path string) FolderMetadata {
	meta := FolderMetadata{Title: stem(path)}

	folders := in.folders(path)
	if len(folders) > 0 {
		meta.Author = folders[0]
	}
	if len(folders) > 1 {
		meta.Series = folders[1]
	}
	if len(folders) > 2 && folderYearRE.MatchString(folders[2]) {
		meta.Year = folders[2]
	}
	return meta
}

// ParseFilename applies the "[Authors] (Year) - Title" convention. Names
// that don't follow it are not an error: the whole stem becomes the title.
func (in *Inferrer) ParseFilename(ctx context.Context, path string) FilenameMetadata {
	name := stem(path)
	m := filenameRE.FindStringSubmatch(name)
	if m == nil {
		logger.FromContext(ctx).Warn("filename does not match naming convention", logger.Data{"filename": name})
		return FilenameMetadata{Authors: []string{}, Title: name}
	}

	authors := []string{}
	for _, a := range authorSplitRE.Split(m[authorsGroup], -1) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	meta := FilenameMetadata{
		Authors: authors,
		Year:    m[yearGroup],
		Title:   strings.TrimSpace(m[titleGroup]),
	}
	if len(authors) > 0 {
		meta.PrimaryAuthor = authors[0]
	}
	if meta.Title == "" {
		meta.Title = name
	}
	return meta
}

// Build combines folder and filename inference. The filename wins for
// author, year and title; series only ever comes from folders and the
// author list only from the filename.
func (in *Inferrer) Build(ctx context.Context, path string) Metadata {
	folder := in.InferFromFolder(path)
	file := in.ParseFilename(ctx, path)

	return Metadata{
		Author:  firstNonEmpty(file.PrimaryAuthor, folder.Author),
		Authors: file.Authors,
		Series:  folder.Series,
		Year:    firstNonEmpty(file.Year, folder.Year),
		Title:   firstNonEmpty(file.Title, folder.Title),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
