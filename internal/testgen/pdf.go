package testgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"
)

// GeneratePDF writes a minimal but well-formed PDF with an Info dictionary
// and opts.PageCount blank pages. Cross-reference offsets are computed from
// the written bytes so strict readers accept the file.
func GeneratePDF(t *testing.T, dir, filename string, opts PDFOptions) string {
	t.Helper()

	pageCount := opts.PageCount
	if pageCount <= 0 {
		pageCount = 1
	}

	// Object numbers: 1 catalog, 2 page tree, 3 info, 4.. pages.
	kids := make([]string, pageCount)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+4)
	}

	var info strings.Builder
	info.WriteString("<<")
	if opts.Title != "" {
		if opts.UTF16Title {
			info.WriteString(" /Title " + utf16HexString(opts.Title))
		} else {
			info.WriteString(" /Title " + literalString(opts.Title))
		}
	}
	if opts.Author != "" {
		info.WriteString(" /Author " + literalString(opts.Author))
	}
	if opts.CreationDate != "" {
		info.WriteString(" /CreationDate " + literalString(opts.CreationDate))
	}
	info.WriteString(" /Producer (testgen) >>")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
		info.String(),
	}
	for i := 0; i < pageCount; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 3 0 R >>\n", len(objects)+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write PDF file: %v", err)
	}
	return path
}

func literalString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

func utf16HexString(s string) string {
	var b strings.Builder
	b.WriteString("<FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&b, "%04X", u)
	}
	b.WriteString(">")
	return b.String()
}
