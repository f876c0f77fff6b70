package extractor

import "strings"

// SelectorKind identifies how a selector addresses the document.
type SelectorKind int

const (
	// ByTag matches the first element with the given tag name.
	ByTag SelectorKind = iota
	// ByClass matches every element carrying the given class.
	ByClass
	// ByID matches the first element with the given id.
	ByID
)

// Selector is the parsed form of a target selector string. Representing the
// kind as a tagged variant keeps the dispatch in one place instead of
// sniffing the leading character throughout the extraction code.
type Selector struct {
	Kind SelectorKind
	Name string
}

// ParseSelector parses a selector string: a leading '.' selects by class, a
// leading '#' selects by id, anything else is a tag name.
func ParseSelector(s string) Selector {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "."):
		return Selector{Kind: ByClass, Name: strings.TrimPrefix(s, ".")}
	case strings.HasPrefix(s, "#"):
		return Selector{Kind: ByID, Name: strings.TrimPrefix(s, "#")}
	default:
		return Selector{Kind: ByTag, Name: s}
	}
}

// String returns the selector in its CSS form.
func (s Selector) String() string {
	switch s.Kind {
	case ByClass:
		return "." + s.Name
	case ByID:
		return "#" + s.Name
	default:
		return s.Name
	}
}
