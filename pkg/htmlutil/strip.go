package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements break the text flow, so they become line breaks.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Tr: true,
}

// StripTags turns an HTML fragment (typically an EPUB or provider
// description) into plain text. Block elements become newlines, entities are
// decoded, whitespace within a line is collapsed and empty lines dropped.
// Script and style contents are discarded.
func StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}

	var sb strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skip == 0 {
				sb.WriteString(tok.Data)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if blockElements[tok.DataAtom] {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
				if skip > 0 {
					skip--
				}
				continue
			}
			if blockElements[tok.DataAtom] {
				sb.WriteByte('\n')
			}
		case html.ErrorToken, html.CommentToken, html.DoctypeToken:
		}
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
