package mediafile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samanbooks/samanbooks/pkg/models"
)

var formatsByExtension = map[string]models.Format{
	".epub": models.FormatEPUB,
	".pdf":  models.FormatPDF,
}

// Classify maps a path to its content kind by case-insensitive extension.
// It never touches the file.
func Classify(path string) models.Format {
	if f, ok := formatsByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return models.FormatUnknown
}

// ParsedMetadata is what a content extractor could read out of a file.
// Every field is optional; zero values mean the container didn't say.
type ParsedMetadata struct {
	Title       string
	Authors     []string
	Publisher   string
	Year        string
	ReleaseDate string
	Description string
	ISBN        string
	PageCount   *int
	// Series comes from calibre's series meta, when present.
	Series        string
	CoverData     []byte
	CoverMimeType string
	CoverHash     string
	Format        models.Format
}

// SetCover stores the cover bytes along with their sniffed mime type and
// SHA-256 fingerprint.
func (m *ParsedMetadata) SetCover(data []byte) {
	if len(data) == 0 {
		return
	}
	m.CoverData = data
	m.CoverMimeType = mimetype.Detect(data).String()
	m.CoverHash = Fingerprint(data)
}

// HasCover reports whether cover bytes were found.
func (m *ParsedMetadata) HasCover() bool {
	return len(m.CoverData) > 0
}

func (m *ParsedMetadata) String() string {
	return fmt.Sprintf("Title:           %s\nAuthor(s):       %s\nISBN:            %s\nYear:            %s\nHas Cover Data:  %v\nCover Mime Type: %s\nFormat:          %s",
		m.Title, strings.Join(m.Authors, ", "), m.ISBN, m.Year, m.HasCover(), m.CoverMimeType, m.Format)
}

func (m *ParsedMetadata) CoverExtension() string {
	ext := ""
	switch m.CoverMimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	return ext
}

// Fingerprint is the hex SHA-256 digest of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
