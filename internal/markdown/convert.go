// Package markdown converts the accumulated HTML output of a crawl into a
// Markdown document. The conversion is a one-shot batch step over the whole
// file, not a per-page operation. It is deliberately lossy: headings,
// paragraphs, lists, code blocks and links survive; everything else is
// flattened to text, and script, style and nav subtrees are dropped.
package markdown

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	md "github.com/nao1215/markdown"
	"golang.org/x/net/html"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// pageMarkerRE matches the source-URL marker comments the output sink
// writes between concatenated pages.
var pageMarkerRE = regexp.MustCompile(`^\s*PAGE:\s*(\S+)\s*$`)

// ConvertFile converts the HTML file at htmlPath into a Markdown file at
// mdPath.
func ConvertFile(htmlPath, mdPath string) error {
	in, err := os.Open(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to open HTML file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(mdPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create markdown file: %w", err)
	}

	if err := Convert(in, out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Convert reads HTML from r and writes the Markdown rendition to w.
func Convert(r io.Reader, w io.Writer) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse HTML for conversion: %w", err)
	}

	builder := md.NewMarkdown(w)
	c := &converter{md: builder}
	c.walk(doc)

	return builder.Build()
}

// converter walks the parsed tree and feeds block-level content to the
// markdown builder.
type converter struct {
	md *md.Markdown
}

func (c *converter) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		if m := pageMarkerRE.FindStringSubmatch(n.Data); m != nil {
			c.md.HorizontalRule()
			c.md.PlainText(md.Bold("PAGE: " + m[1]))
		}
		return

	case html.ElementNode:
		switch n.Data {
		case "script", "style", "nav":
			return
		case "title", "h1":
			if text := flattenText(n); text != "" {
				c.md.H1(text)
			}
			return
		case "h2":
			if text := flattenText(n); text != "" {
				c.md.H2(text)
			}
			return
		case "h3":
			if text := flattenText(n); text != "" {
				c.md.H3(text)
			}
			return
		case "h4":
			if text := flattenText(n); text != "" {
				c.md.H4(text)
			}
			return
		case "h5":
			if text := flattenText(n); text != "" {
				c.md.H5(text)
			}
			return
		case "h6":
			if text := flattenText(n); text != "" {
				c.md.H6(text)
			}
			return
		case "p", "blockquote":
			if text := flattenText(n); text != "" {
				c.md.PlainText(text)
			}
			return
		case "ul":
			if items := listItems(n); len(items) > 0 {
				c.md.BulletList(items...)
			}
			return
		case "ol":
			if items := listItems(n); len(items) > 0 {
				c.md.OrderedList(items...)
			}
			return
		case "pre":
			if code := rawText(n); code != "" {
				c.md.CodeBlocks(md.SyntaxHighlightText, code)
			}
			return
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

// listItems collects the flattened text of the direct li children of a list
// element.
func listItems(n *html.Node) []string {
	var items []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "li" {
			if text := flattenText(child); text != "" {
				items = append(items, text)
			}
		}
	}
	return items
}

// flattenText flattens a subtree to a single normalized line, rendering
// anchors as inline markdown links.
func flattenText(n *html.Node) string {
	var b strings.Builder
	flattenInto(&b, n)
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(b.String(), " "))
}

func flattenInto(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "a":
			if href := attrValue(n, "href"); href != "" {
				text := rawFlatten(n)
				if text == "" {
					text = href
				}
				b.WriteString(" " + md.Link(text, href) + " ")
				return
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		flattenInto(b, child)
	}
}

// rawFlatten returns the unstyled text of a subtree with whitespace
// collapsed, without rendering nested links.
func rawFlatten(n *html.Node) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(rawText(n), " "))
}

// rawText concatenates the text nodes of a subtree without normalization,
// preserving line breaks for code blocks.
func rawText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(rawText(child))
	}

	if n.Type == html.ElementNode && n.Data == "pre" {
		return strings.Trim(b.String(), "\n")
	}
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
