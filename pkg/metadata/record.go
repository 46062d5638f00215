// Package metadata holds the common bibliographic record every source is
// normalized into, the provider capability interfaces, and the policy that
// merges local and remote metadata.
package metadata

import "strings"

// Record is the common field set for one book. Local extraction and every
// provider adapter produce Records.
type Record struct {
	Title       string
	Authors     []string
	Series      string
	Publisher   string
	Year        string
	PublishDate string
	Description string
	ISBN        string
	PageCount   *int
	CoverURL    string
	// Key is the provider's own identifier (work key, volume id).
	Key string
	// Source names the provider a remote record came from. Empty for local
	// records.
	Source string

	// CoverData and CoverHash only come from the content extractor.
	CoverData []byte
	CoverHash string
}

// IsEmpty reports whether a provider result carries nothing usable.
func (r *Record) IsEmpty() bool {
	if r == nil {
		return true
	}
	return strings.TrimSpace(r.Title) == "" && len(r.Authors) == 0 && r.ISBN == ""
}

// AuthorRecord is an author as described by an author provider.
type AuthorRecord struct {
	Key         string
	Name        string
	Biography   string
	BirthDate   string
	DeathDate   string
	Nationality string
	PhotoURL    string
	Links       map[string]string
	WorkCount   int
	TopWork     string
}

// WorkRecord is an abstract work (all editions of one book).
type WorkRecord struct {
	Key              string
	Title            string
	Description      string
	FirstPublishYear string
	Subjects         []string
	CoverURL         string
	AuthorKeys       []string
}

// CoverSize is the size class of a cover image URL.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// ParseCoverSize maps "S", "M" or "L" (any case) to a CoverSize, defaulting
// to large.
func ParseCoverSize(s string) CoverSize {
	switch CoverSize(strings.ToUpper(strings.TrimSpace(s))) {
	case CoverSmall:
		return CoverSmall
	case CoverMedium:
		return CoverMedium
	case CoverLarge:
	}
	return CoverLarge
}
