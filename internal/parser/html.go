package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings become ATX headings, text blocks
// become paragraphs and tables are re-emitted as plain <table> markup so the
// chunker's table compaction applies to them.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.SourceDocument, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var md markdownWriter
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				md.heading(level, textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "table":
				md.block(renderTable(n))
				return
			case "li":
				md.block("- " + collapse(textContent(n)))
				return
			case "p", "blockquote", "pre":
				md.block(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	var title string
	if t := findElement(doc, "title"); t != nil {
		title = collapse(textContent(t))
	}
	return newDocument(filename, "html", title, md.String(), 0), nil
}

// renderTable writes one row per line, cells as <th>/<td> with escaped text.
func renderTable(table *html.Node) string {
	var buf strings.Builder
	buf.WriteString("<table>\n")
	var rows func(*html.Node)
	rows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tr":
				buf.WriteString("<tr>")
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						fmt.Fprintf(&buf, "<%s>%s</%s>", cell.Data, html.EscapeString(collapse(textContent(cell))), cell.Data)
					}
				}
				buf.WriteString("</tr>\n")
			default:
				// Nested tables are flattened into the outer one.
				rows(c)
			}
		}
	}
	rows(table)
	buf.WriteString("</table>")
	return buf.String()
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
