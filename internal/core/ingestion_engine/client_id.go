package ingestion_engine

import (
	"regexp"
	"strings"
)

const (
	clientIDMaxLen = 60
	clientIDSuffix = "_docs"
)

var (
	schemeRX     = regexp.MustCompile(`^https?://`)
	disallowedRX = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

// ClientID derives the collection-safe identifier that groups one website's documents.
// "https://Example.com/Path!" becomes "Example.com_Path_docs". Every disallowed
// character maps to its own underscore; runs are not collapsed.
func ClientID(identifier string) string {
	name := schemeRX.ReplaceAllString(identifier, "")
	name = disallowedRX.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")
	if len(name) > clientIDMaxLen {
		name = name[:clientIDMaxLen]
	}
	return name + clientIDSuffix
}
