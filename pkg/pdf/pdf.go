package pdf

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/reader"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Extractor reads document info out of PDF files. It is fail-soft: parse
// problems are logged and whatever was read before the failure is returned.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract always returns a record and a nil error. The error return exists
// so the extractor satisfies the same contract as the EPUB one.
func (*Extractor) Extract(ctx context.Context, path string) (metadata *mediafile.ParsedMetadata, err error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	metadata = &mediafile.ParsedMetadata{Format: models.FormatPDF}

	defer func() {
		if r := recover(); r != nil {
			log.Warn("failed to extract pdf metadata", logger.Data{"error": fmt.Sprint(r)})
			err = nil
		}
	}()

	if perr := readInto(metadata, path); perr != nil {
		log.Warn("failed to extract pdf metadata", logger.Data{"error": perr.Error()})
	}
	return metadata, nil
}

// readInto fills metadata field by field so a failure part way through
// leaves the earlier fields in place.
func readInto(metadata *mediafile.ParsedMetadata, path string) error {
	r, err := reader.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open pdf")
	}
	defer r.Close()

	info, err := r.GetInfo()
	if err != nil {
		return errors.Wrap(err, "failed to read info dictionary")
	}
	if info != nil {
		metadata.Title = infoString(r, info, "Title")
		if author := infoString(r, info, "Author"); author != "" {
			metadata.Authors = []string{author}
		}
		metadata.Year = yearFromDate(infoString(r, info, "CreationDate"))
	}

	count, err := r.PageCount()
	if err != nil {
		return errors.Wrap(err, "failed to count pages")
	}
	metadata.PageCount = &count
	return nil
}

func infoString(r *reader.Reader, info core.Dict, key string) string {
	obj := info.Get(key)
	if obj == nil {
		return ""
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return ""
	}
	s, ok := resolved.(core.String)
	if !ok {
		return ""
	}
	return strings.TrimSpace(DecodeText([]byte(s)))
}

// DecodeText decodes a PDF text string. Strings starting with a UTF-16
// byte order mark are UTF-16; anything else that isn't valid UTF-8 is
// treated as Latin-1, which matches PDFDocEncoding for printable text.
func DecodeText(b []byte) string {
	if len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE)) {
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(decoded)
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

// yearFromDate takes the year out of a PDF date such as "D:19510501120000Z".
func yearFromDate(date string) string {
	if len(date) < 6 {
		return ""
	}
	year := date[2:6]
	for _, c := range year {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return year
}
