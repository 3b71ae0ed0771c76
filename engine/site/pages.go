package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Page is a static markdown page rendered to HTML at startup.
type Page struct {
	Name    string
	Title   string
	Content template.HTML
}

// loadPages renders every pages/*.md file of fsys. The first level-one
// heading becomes the page title.
func loadPages(fsys fs.FS) (map[string]Page, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	files, err := fs.Glob(fsys, "pages/*.md")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]Page, len(files))
	for _, f := range files {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("site: reading %s: %w", f, err)
		}
		var buf bytes.Buffer
		if err := md.Convert(src, &buf); err != nil {
			return nil, fmt.Errorf("site: rendering %s: %w", f, err)
		}
		name := strings.TrimSuffix(path.Base(f), ".md")
		pages[name] = Page{
			Name:    name,
			Title:   pageTitle(src, name),
			Content: template.HTML(buf.String()),
		}
	}
	return pages, nil
}

func pageTitle(src []byte, fallback string) string {
	for _, line := range strings.Split(string(src), "\n") {
		if t, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return fallback
}
