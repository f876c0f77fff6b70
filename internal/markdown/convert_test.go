package markdown

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func convert(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	if err := Convert(strings.NewReader(input), &out); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	return out.String()
}

func TestConvertHeadings(t *testing.T) {
	got := convert(t, `<html><body>
		<h1>Top Heading</h1>
		<h2>Second Level</h2>
		<h3>Third Level</h3>
	</body></html>`)

	if !strings.Contains(got, "# Top Heading") {
		t.Errorf("Missing h1 heading in output:\n%s", got)
	}
	if !strings.Contains(got, "## Second Level") {
		t.Errorf("Missing h2 heading in output:\n%s", got)
	}
	if !strings.Contains(got, "### Third Level") {
		t.Errorf("Missing h3 heading in output:\n%s", got)
	}
}

func TestConvertParagraphsAndLists(t *testing.T) {
	got := convert(t, `<html><body>
		<p>A   paragraph with
		broken    lines.</p>
		<ul><li>first</li><li>second</li></ul>
		<ol><li>one</li><li>two</li></ol>
	</body></html>`)

	if !strings.Contains(got, "A paragraph with broken lines.") {
		t.Errorf("Paragraph whitespace not normalized:\n%s", got)
	}
	if !strings.Contains(got, "- first") || !strings.Contains(got, "- second") {
		t.Errorf("Missing bullet list items:\n%s", got)
	}
	if !strings.Contains(got, "1. one") || !strings.Contains(got, "2. two") {
		t.Errorf("Missing ordered list items:\n%s", got)
	}
}

func TestConvertCodeBlocks(t *testing.T) {
	got := convert(t, `<html><body><pre>
line one
    indented line
</pre></body></html>`)

	if !strings.Contains(got, "```") {
		t.Errorf("Missing code fence:\n%s", got)
	}
	// Code keeps its line structure
	if !strings.Contains(got, "line one\n    indented line") {
		t.Errorf("Code block lost its formatting:\n%s", got)
	}
}

func TestConvertLinks(t *testing.T) {
	got := convert(t, `<html><body>
		<p>See the <a href="https://example.com/docs">documentation</a> page.</p>
	</body></html>`)

	if !strings.Contains(got, "[documentation](https://example.com/docs)") {
		t.Errorf("Anchor not rendered as markdown link:\n%s", got)
	}
}

func TestConvertDropsScriptStyleNav(t *testing.T) {
	got := convert(t, `<html><body>
		<nav><a href="/">Home</a></nav>
		<script>var x = "scripted";</script>
		<style>.a { color: red }</style>
		<p>Visible text.</p>
	</body></html>`)

	if strings.Contains(got, "scripted") || strings.Contains(got, "color: red") || strings.Contains(got, "Home") {
		t.Errorf("Dropped subtree leaked into output:\n%s", got)
	}
	if !strings.Contains(got, "Visible text.") {
		t.Errorf("Missing paragraph text:\n%s", got)
	}
}

func TestConvertPageMarkers(t *testing.T) {
	got := convert(t, `<!-- PAGE: https://example.com/docs/intro -->
<html><body><h1>Intro</h1></body></html>`)

	if !strings.Contains(got, "---") {
		t.Errorf("Missing horizontal rule for page marker:\n%s", got)
	}
	if !strings.Contains(got, "**PAGE: https://example.com/docs/intro**") {
		t.Errorf("Missing bold page marker:\n%s", got)
	}
}

func TestConvertIgnoresOtherComments(t *testing.T) {
	got := convert(t, `<html><body><!-- just a note --><p>Text.</p></body></html>`)

	if strings.Contains(got, "just a note") {
		t.Errorf("Plain comment leaked into output:\n%s", got)
	}
}

func TestConvertTitleBecomesHeading(t *testing.T) {
	got := convert(t, `<html><head><title>Page Title</title></head><body><p>Body.</p></body></html>`)

	if !strings.Contains(got, "# Page Title") {
		t.Errorf("Title not rendered as h1:\n%s", got)
	}
}

func TestConvertFile(t *testing.T) {
	tempDir := t.TempDir()
	htmlPath := filepath.Join(tempDir, "pages.html")
	mdPath := filepath.Join(tempDir, "pages.md")

	content := `<!-- PAGE: https://example.com/ -->
<html><body><h1>Hello</h1><p>World.</p></body></html>`
	if err := os.WriteFile(htmlPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test HTML: %v", err)
	}

	if err := ConvertFile(htmlPath, mdPath); err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}

	data, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("Failed to read markdown output: %v", err)
	}
	if !strings.Contains(string(data), "# Hello") {
		t.Errorf("Markdown file missing heading:\n%s", data)
	}
}

func TestConvertFileMissingSource(t *testing.T) {
	tempDir := t.TempDir()
	err := ConvertFile(filepath.Join(tempDir, "absent.html"), filepath.Join(tempDir, "out.md"))
	if err == nil {
		t.Error("Expected error for missing source file")
	}
}
