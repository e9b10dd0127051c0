// Package normalize converts raw page markup into a lightweight structured
// text form suitable for the reasoning oracle: boilerplate elements are
// dropped, heading hierarchy and link text are preserved.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// skipTags are structural elements that never carry subject content.
var skipTags = map[string]bool{
	"head":     true,
	"header":   true,
	"footer":   true,
	"nav":      true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"img":      true,
	"svg":      true,
	"picture":  true,
	"video":    true,
	"audio":    true,
	"iframe":   true,
	"canvas":   true,
	"form":     true,
	"button":   true,
	"select":   true,
}

// blockTags force a paragraph break around their content.
var blockTags = map[string]bool{
	"p":          true,
	"div":        true,
	"section":    true,
	"article":    true,
	"main":       true,
	"aside":      true,
	"ul":         true,
	"ol":         true,
	"table":      true,
	"blockquote": true,
	"pre":        true,
	"hr":         true,
}

var headingLevel = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// Normalize strips boilerplate from markup and renders the remaining content
// tree as structured plain text. It is a pure transform: malformed markup
// yields partial output, total failure yields the empty string, never an
// error.
func Normalize(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// html.Parse recovers from almost anything; this is the total-failure path.
		return ""
	}

	var b strings.Builder
	render(&b, doc)
	return tidy(b.String())
}

func render(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		tag := n.Data
		if skipTags[tag] {
			return
		}
		if level, ok := headingLevel[tag]; ok {
			text := innerText(n)
			if text != "" {
				b.WriteString("\n\n")
				b.WriteString(strings.Repeat("#", level))
				b.WriteString(" ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}
			return
		}
		switch tag {
		case "a":
			text := innerText(n)
			href := attr(n, "href")
			switch {
			case text == "":
				return
			case href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:"):
				b.WriteString(text)
			default:
				b.WriteString("[" + text + "](" + href + ")")
			}
			b.WriteString(" ")
			return
		case "li":
			b.WriteString("\n- ")
		case "br":
			b.WriteString("\n")
		case "td", "th":
			defer b.WriteString(" | ")
		}
		if blockTags[tag] {
			b.WriteString("\n")
			defer b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
}

// innerText flattens the visible text below a node, skipping boilerplate.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skipTags[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

var (
	lineSpace = regexp.MustCompile(`[ \t]+`)
	multiLine = regexp.MustCompile(`\n{3,}`)
)

// tidy collapses intra-line whitespace and runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(lineSpace.ReplaceAllString(line, " "))
	}
	out := multiLine.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}
