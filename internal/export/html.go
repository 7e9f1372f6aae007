// Package export renders the serialized outline as an HTML page.
package export

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// BodyMarker is replaced by the rendered document.
const BodyMarker = "<body />"

// DefaultTemplate is used when no template file is configured or readable.
const DefaultTemplate = `<?xml version="1.0" encoding="UTF-8"?><html><body /></html>`

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// Render converts markdown to an HTML fragment.
func Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTML renders markdown into template, replacing its BodyMarker. A template
// without the marker gets the fragment appended.
func HTML(markdown, template string) (string, error) {
	body, err := Render(markdown)
	if err != nil {
		return "", err
	}
	if template == "" {
		template = DefaultTemplate
	}
	page := "<body>" + body + "</body>"
	if !strings.Contains(template, BodyMarker) {
		return template + page, nil
	}
	return strings.Replace(template, BodyMarker, page, 1), nil
}

// LoadTemplate reads a template file, falling back to DefaultTemplate when
// path is empty or unreadable. The error reports why the fallback was used.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTemplate, fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}
