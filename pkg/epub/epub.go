package epub

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/models"
)

const containerPath = "META-INF/container.xml"

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// Extractor reads metadata out of EPUB files.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract opens the EPUB at path read-only and returns its package
// metadata and cover. A file that isn't a readable EPUB archive is an error;
// missing metadata fields are not.
func (*Extractor) Extract(ctx context.Context, path string) (*mediafile.ParsedMetadata, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open epub archive")
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath := findOPF(files, zr.File)
	if opfPath == "" {
		return nil, errors.New("no opf file found")
	}

	r, err := files[opfPath].Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	opf, err := ParseOPF(opfPath, r)
	r.Close()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse opf")
	}

	metadata := &mediafile.ParsedMetadata{
		Title:       opf.Title,
		Authors:     opf.Authors,
		Publisher:   opf.Publisher,
		Year:        opf.Year,
		ReleaseDate: opf.Date,
		Description: opf.Description,
		ISBN:        opf.ISBN,
		Series:      opf.Series,
		Format:      models.FormatEPUB,
	}

	for _, candidate := range opf.CoverCandidates {
		f, ok := files[candidate]
		if !ok {
			log.Debug("cover candidate missing from archive", logger.Data{"cover_path": candidate})
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			log.Warn("failed to read cover image", logger.Data{"cover_path": candidate, "error": err.Error()})
			continue
		}
		metadata.SetCover(data)
		break
	}

	return metadata, nil
}

// findOPF returns the package document named by container.xml, falling back
// to the first .opf entry in the archive.
func findOPF(files map[string]*zip.File, ordered []*zip.File) string {
	if f, ok := files[containerPath]; ok {
		if b, err := readZipFile(f); err == nil {
			c := &container{}
			if xml.Unmarshal(b, c) == nil {
				for _, rf := range c.Rootfiles {
					if _, ok := files[rf.FullPath]; ok {
						return rf.FullPath
					}
				}
			}
		}
	}
	for _, f := range ordered {
		if strings.EqualFold(path.Ext(f.Name), ".opf") {
			return f.Name
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	return b, errors.WithStack(err)
}
