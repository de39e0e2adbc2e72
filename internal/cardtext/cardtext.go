// Package cardtext derives searchable and export-friendly text from card
// content. Cards are authored as rich-text HTML; search indexing wants the
// bare words and exports want markdown.
package cardtext

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Converter derives plain text and markdown from rich-text card HTML.
// Safe for reuse across cards.
type Converter struct {
	converter *md.Converter
}

func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Markdown converts card HTML to markdown. Non-HTML input passes through
// mostly unchanged since the converter treats it as text.
func (c *Converter) Markdown(content string) (string, error) {
	out, err := c.converter.ConvertString(content)
	if err != nil {
		return "", err
	}
	out = excessiveLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}

// PlainText strips markup from card HTML, joining block contents with
// spaces. Falls back to the raw input when the content does not parse.
func PlainText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(parts, " ")
}

// WordCount counts whitespace-separated words in card HTML.
func WordCount(content string) int {
	return len(strings.Fields(PlainText(content)))
}

// SearchText builds the text indexed for full-text search: the plain words
// of the card body.
func SearchText(content string) string {
	return PlainText(content)
}
