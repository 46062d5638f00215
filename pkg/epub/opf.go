package epub

import (
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/htmlutil"
	"github.com/samanbooks/samanbooks/pkg/identifiers"
)

// OPF is the descriptive metadata of an EPUB package document, with
// manifest paths already resolved against the OPF's location.
type OPF struct {
	Title       string
	Authors     []string
	Publisher   string
	Date        string
	Year        string
	Description string
	ISBN        string
	Series      string
	// CoverCandidates lists archive paths that may hold the cover image,
	// most authoritative first.
	CoverCandidates []string
}

type manifestItem struct {
	Text       string `xml:",chardata"`
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type Package struct {
	XMLName          xml.Name `xml:"package"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         struct {
		Title []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Description []string `xml:"description"`
		Publisher   []string `xml:"publisher"`
		Identifier  []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Scheme string `xml:"scheme,attr"`
		} `xml:"identifier"`
		Date     []string `xml:"date"`
		Language []string `xml:"language"`
		Meta     []struct {
			Text     string `xml:",chardata"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Item []manifestItem `xml:"item"`
	} `xml:"manifest"`
}

// ParseOPF parses the package document at filename (its path inside the
// archive) read from r.
func ParseOPF(filename string, r io.Reader) (*OPF, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pkg := &Package{}
	err = xml.Unmarshal(b, pkg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Manifest hrefs are relative to the OPF file. Archive paths always use
	// forward slashes, so path (not filepath) is right here.
	basePath := path.Dir(filename)
	resolve := func(href string) string {
		if basePath == "." {
			return href
		}
		return path.Join(basePath, href)
	}

	// Parse out metadata into a more lookup-friendly structure.
	metaProperties := map[string]map[string]string{}
	metaContent := map[string]string{}
	for _, m := range pkg.Metadata.Meta {
		if m.Refines != "" {
			key := strings.TrimPrefix(m.Refines, "#")
			if _, ok := metaProperties[key]; !ok {
				metaProperties[key] = map[string]string{}
			}
			metaProperties[key][m.Property] = strings.TrimSpace(m.Text)
		} else if m.Content != "" {
			metaContent[m.Name] = m.Content
		}
	}

	opf := &OPF{
		Title:     mainTitle(pkg, metaProperties),
		Publisher: first(pkg.Metadata.Publisher),
		Date:      first(pkg.Metadata.Date),
		Series:    strings.TrimSpace(metaContent["calibre:series"]),
	}

	if len(opf.Date) >= 4 && isDigits(opf.Date[:4]) {
		opf.Year = opf.Date[:4]
	}

	if desc := first(pkg.Metadata.Description); desc != "" {
		opf.Description = htmlutil.StripTags(desc)
	}

	for _, creator := range pkg.Metadata.Creator {
		name := strings.TrimSpace(creator.Text)
		if name == "" {
			continue
		}
		role := creator.Role
		if role == "" && creator.ID != "" && metaProperties[creator.ID] != nil {
			role = metaProperties[creator.ID]["role"]
		}
		// Creators without a role are assumed to be authors.
		if role == "" || role == "aut" {
			opf.Authors = append(opf.Authors, name)
		}
	}

	for _, id := range pkg.Metadata.Identifier {
		scheme := id.Scheme
		if scheme == "" && id.ID != "" && metaProperties[id.ID] != nil {
			scheme = metaProperties[id.ID]["identifier-type"]
		}
		if isbn, ok := identifiers.ParseISBN(id.Text, scheme); ok {
			opf.ISBN = isbn
			break
		}
	}

	opf.CoverCandidates = coverCandidates(pkg.Manifest.Item, metaContent["cover"], resolve)

	return opf, nil
}

// coverCandidates orders the manifest's possible cover images: the item
// with id "cover", then image items whose href mentions "cover", then the
// item named by <meta name="cover">, then the EPUB 3 cover-image property.
func coverCandidates(items []manifestItem, metaCoverID string, resolve func(string) string) []string {
	var candidates []string
	seen := map[string]bool{}
	add := func(item manifestItem) {
		p := resolve(item.Href)
		if item.Href == "" || seen[p] {
			return
		}
		seen[p] = true
		candidates = append(candidates, p)
	}

	for _, item := range items {
		if item.ID == "cover" && isImage(item) {
			add(item)
		}
	}
	for _, item := range items {
		if isImage(item) && strings.Contains(strings.ToLower(item.Href), "cover") {
			add(item)
		}
	}
	if metaCoverID != "" {
		for _, item := range items {
			if item.ID == metaCoverID {
				add(item)
			}
		}
	}
	for _, item := range items {
		if isImage(item) && strings.Contains(item.Properties, "cover-image") {
			add(item)
		}
	}
	return candidates
}

func mainTitle(pkg *Package, metaProperties map[string]map[string]string) string {
	titles := pkg.Metadata.Title
	if len(titles) == 0 {
		return ""
	}
	for _, t := range titles {
		if t.ID != "" && metaProperties[t.ID] != nil && metaProperties[t.ID]["title-type"] == "main" {
			return strings.TrimSpace(t.Text)
		}
	}
	return strings.TrimSpace(titles[0].Text)
}

func isImage(item manifestItem) bool {
	return strings.HasPrefix(item.MediaType, "image/")
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
