// Package extractor locates selector-targeted content in a parsed document,
// strips navigation and other boilerplate, and returns flattened text. The
// matched subtree is cloned before any mutation so the document used for
// link extraction is never modified and extraction is idempotent.
package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplateTokens mark an element as navigation or chrome when its class
// or id attribute contains one of them.
var boilerplateTokens = []string{"nav", "breadcrumb", "sidebar", "header", "footer"}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Extractor extracts normalized text for a fixed selector.
type Extractor struct {
	selector Selector
}

// New creates an extractor for the given selector string.
func New(selector string) *Extractor {
	return &Extractor{selector: ParseSelector(selector)}
}

// Selector returns the parsed selector the extractor was built with.
func (e *Extractor) Selector() Selector {
	return e.selector
}

// Extract returns the normalized text for the extractor's selector. When the
// primary selector matches nothing, or matches only empty content, it falls
// back to the document body; if that also yields nothing the result is the
// empty string, which is not an error.
func (e *Extractor) Extract(root *html.Node, pageURL string) string {
	doc := goquery.NewDocumentFromNode(root)

	if text := e.extractWith(doc, e.selector); text != "" {
		return text
	}

	if e.selector.Kind == ByTag && e.selector.Name == "body" {
		return ""
	}

	slog.Debug("Selector matched nothing, falling back to body", "selector", e.selector.String(), "url", pageURL)
	return e.extractWith(doc, Selector{Kind: ByTag, Name: "body"})
}

// extractWith runs the match, clone, boilerplate-strip, and text-normalize
// pipeline for one selector.
func (e *Extractor) extractWith(doc *goquery.Document, sel Selector) string {
	switch sel.Kind {
	case ByClass:
		var parts []string
		doc.Find("." + sel.Name).Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Clone()); text != "" {
				parts = append(parts, text)
			}
		})
		return strings.Join(parts, "\n")

	case ByID:
		matched := doc.Find("#" + sel.Name).First()
		if matched.Length() == 0 {
			return ""
		}
		return cleanText(matched.Clone())

	default:
		matched := doc.Find(sel.Name).First()
		if matched.Length() == 0 {
			return ""
		}

		clone := matched.Clone()
		if sel.Name == "main" {
			clone = narrowMain(clone)
		}
		return cleanText(clone)
	}
}

// narrowMain applies the special handling for <main> elements: prefer the
// page's content container when one exists, otherwise drop breadcrumb
// navigation before the generic boilerplate pass runs.
func narrowMain(main *goquery.Selection) *goquery.Selection {
	if content := main.Find("div.td-content"); content.Length() > 0 {
		return content.First()
	}

	main.Find(`nav[aria-label="breadcrumb"]`).Remove()
	return main
}

// cleanText strips boilerplate from an already-cloned selection and returns
// its flattened text.
func cleanText(clone *goquery.Selection) string {
	removeBoilerplate(clone)
	return normalizeWhitespace(clone.Text())
}

// removeBoilerplate removes script, style and nav elements, plus anything
// whose class or id marks it as navigation, header, footer or sidebar.
func removeBoilerplate(s *goquery.Selection) {
	s.Find("script, style, nav").Remove()

	s.Find("[class], [id]").Each(func(_ int, el *goquery.Selection) {
		class, _ := el.Attr("class")
		id, _ := el.Attr("id")
		if containsBoilerplateToken(class) || containsBoilerplateToken(id) {
			el.Remove()
		}
	})
}

func containsBoilerplateToken(attr string) bool {
	if attr == "" {
		return false
	}
	attr = strings.ToLower(attr)
	for _, token := range boilerplateTokens {
		if strings.Contains(attr, token) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses all whitespace runs, newlines included, to
// single spaces and trims the result. Paragraph structure is intentionally
// not preserved.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}
