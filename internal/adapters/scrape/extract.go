// Package scrape finds, parses and selects the target stats table inside a
// saved HTML page, including tables the publisher hides in comments.
package scrape

import (
	"regexp"
	"strings"
)

var (
	tableRegion   = regexp.MustCompile(`(?i)<table[\s\S]*?</table>`)
	commentRegion = regexp.MustCompile(`<!--([\s\S]*?)-->`)
)

// Regions returns every <table>...</table> substring of html, closing at
// the first end tag. The visible scan runs over the whole text; comment
// bodies are then scanned again when they contain a table marker, so a
// commented table appears once per scan.
func Regions(html string) []string {
	out := tableRegion.FindAllString(html, -1)
	for _, m := range commentRegion.FindAllStringSubmatch(html, -1) {
		body := m[1]
		if !strings.Contains(strings.ToLower(body), "<table") {
			continue
		}
		out = append(out, tableRegion.FindAllString(body, -1)...)
	}
	return out
}
