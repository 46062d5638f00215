package openlibrary

import (
	"fmt"
	"strings"

	"github.com/samanbooks/samanbooks/pkg/metadata"
)

// CoverProvider templates Open Library cover URLs.
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

func (c *CoverProvider) CoverByISBN(isbn string, size metadata.CoverSize) string {
	return c.cover("isbn", strings.TrimSpace(isbn), size)
}

// CoverByID takes an Open Library edition id (OLID), e.g. "OL7353617M".
func (c *CoverProvider) CoverByID(id string, size metadata.CoverSize) string {
	return c.cover("olid", stripKey(strings.TrimSpace(id)), size)
}

func (c *CoverProvider) cover(kind, id string, size metadata.CoverSize) string {
	if id == "" {
		return ""
	}
	if size == "" {
		size = metadata.CoverLarge
	}
	return fmt.Sprintf("%s/b/%s/%s-%s.jpg", c.baseURL, kind, id, size)
}
