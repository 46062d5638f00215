// Package openlibrary adapts the Open Library API to the metadata provider
// interfaces.
package openlibrary

import (
	"context"
	"regexp"
	"strings"

	"github.com/samanbooks/samanbooks/pkg/httputil"
	"github.com/segmentio/encoding/json"
)

const (
	Name = "openlibrary"

	DefaultBaseURL      = "https://openlibrary.org"
	DefaultCoverBaseURL = "https://covers.openlibrary.org"
)

var yearRE = regexp.MustCompile(`\d{4}`)

type api struct {
	client  *httputil.Client
	baseURL string
}

func newAPI(client *httputil.Client, baseURL string) api {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return api{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a api) get(ctx context.Context, path string, v interface{}) error {
	return a.client.GetJSON(ctx, Name, a.baseURL+path, v)
}

// text is a field Open Library sends either as a plain string or as
// {"type": "/type/text", "value": "..."}.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*t = text(obj.Value)
	return nil
}

// stripKey turns "/works/OL45883W" into "OL45883W".
func stripKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func yearOf(date string) string {
	return yearRE.FindString(date)
}

func firstOf(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
