package cms

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"finitefield.org/cinema-web/internal/format"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
	policy       *bluemonday.Policy
)

func renderer() (goldmark.Markdown, *bluemonday.Policy) {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
		policy = bluemonday.UGCPolicy()
		policy.AllowAttrs("loading").OnElements("img")
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return markdown, policy
}

// RenderMarkdown converts markdown to sanitized HTML safe for templates.
func RenderMarkdown(src string) (template.HTML, error) {
	md, p := renderer()
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(p.SanitizeBytes(buf.Bytes())), nil
}

// Summarize extracts the visible text of an HTML fragment and truncates it to n runes.
func Summarize(fragment string, n int) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return format.Truncate(strings.Join(strings.Fields(b.String()), " "), n)
}
