// Package bookmark defines the record produced by the store scanner and
// consumed by the search index.
package bookmark

import "strings"

// Record is one discovered bookmark. Records are created by the scanner and
// never mutated afterwards.
type Record struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Browser string `json:"browser"`
	Profile string `json:"profile"`
}

// AcceptedURL reports whether url uses a scheme the launcher can open.
// The "http" prefix also covers https.
func AcceptedURL(url string) bool {
	return strings.HasPrefix(url, "http") || strings.HasPrefix(url, "file:")
}
