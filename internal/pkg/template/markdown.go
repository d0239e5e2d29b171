package template

import (
	"bytes"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// MarkdownToHTML converts headers, emphasis and pipe tables to HTML.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderHTML renders tpl and converts the result to HTML.
func RenderHTML(tpl string, vars map[string]any) (string, error) {
	text, err := Render(tpl, vars)
	if err != nil {
		return "", err
	}
	return MarkdownToHTML(text)
}

// EscapeVars returns a copy of vars with every string HTML-escaped, including strings inside
// nested maps and lists, so values can be rendered into HTML output.
func EscapeVars(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = escapeValue(v)
	}
	return out
}

func escapeValue(v any) any {
	switch t := v.(type) {
	case string:
		return stdhtml.EscapeString(t)
	case map[string]any:
		return EscapeVars(t)
	case []map[string]any:
		items := make([]map[string]any, len(t))
		for i, m := range t {
			items[i] = EscapeVars(m)
		}
		return items
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = escapeValue(item)
		}
		return items
	default:
		return v
	}
}
