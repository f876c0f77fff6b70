// Sitescribe scrapes a website into a single HTML file, a Markdown
// rendition, an optional selector-extracted data file, and a SQLite crawl
// record.
package main

import (
	"fmt"
	"os"

	"sitescribe/internal/cmd"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, BuildTime)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
