package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkFilter decides which discovered URLs belong to the crawl. It resolves
// relative hrefs, enforces the same-domain restriction, the sublink substring
// patterns, and the strict path-prefix rule.
type LinkFilter struct {
	base     *url.URL
	basePath string // path prefix for strict matching: the seed's path plus sub_path
	sublinks []string
	strict   bool
}

// NewLinkFilter creates a link filter from the seed URL and filtering rules.
func NewLinkFilter(baseURL, subPath string, sublinks []string, strict bool) (*LinkFilter, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %s", baseURL)
	}

	// sub_path extends the seed's own path, it does not replace it
	basePath := parsed.Path
	if subPath != "" {
		basePath = strings.TrimSuffix(basePath, "/") + subPath
	}

	return &LinkFilter{
		base:     parsed,
		basePath: basePath,
		sublinks: sublinks,
		strict:   strict,
	}, nil
}

// SeedURL returns the URL the crawl starts from: the base URL with the sub
// path appended when one is configured, else the base URL itself.
func (f *LinkFilter) SeedURL() string {
	if f.basePath == f.base.Path {
		return f.base.String()
	}
	seed := *f.base
	seed.Path = f.basePath
	return seed.String()
}

// Resolve joins a possibly-relative href against the page URL. It reports
// false for empty hrefs, fragment-only hrefs, and non-http(s) schemes such
// as mailto:, javascript: or tel:. Fragments are stripped from the result;
// no other normalization is applied, so trailing-slash and query variants
// stay distinct.
func (f *LinkFilter) Resolve(page *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	switch ref.Scheme {
	case "", "http", "https":
	default:
		return "", false
	}

	resolved := page.ResolveReference(ref)
	resolved.Fragment = ""

	if resolved.Host == "" {
		return "", false
	}

	return resolved.String(), true
}

// SameDomain reports whether the URL's host equals the seed host exactly.
// There is no subdomain wildcarding.
func (f *LinkFilter) SameDomain(u *url.URL) bool {
	return u.Host == f.base.Host
}

// MatchesSublinks reports whether the URL's path+query contains any of the
// configured sublink patterns. An empty pattern list matches everything.
func (f *LinkFilter) MatchesSublinks(u *url.URL) bool {
	if len(f.sublinks) == 0 {
		return true
	}

	target := u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	for _, pattern := range f.sublinks {
		if pattern != "" && strings.Contains(target, pattern) {
			return true
		}
	}
	return false
}

// MatchesStrict reports whether the URL passes strict path matching. When
// strict mode is off any URL passes; when on, the path must start with the
// seed's path prefix (or the configured sub path).
func (f *LinkFilter) MatchesStrict(u *url.URL) bool {
	if !f.strict || f.basePath == "" {
		return true
	}
	return strings.HasPrefix(u.Path, f.basePath)
}

// Allow applies all filtering rules to an already-resolved candidate URL.
func (f *LinkFilter) Allow(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return f.SameDomain(u) && f.MatchesSublinks(u) && f.MatchesStrict(u)
}
