// Package mimetype implements the ordered substring-match MIME type mapping
// required by spec.md §4.6, which is deliberately not extension-based
// lookup (a path like "archive.html.gz" must still match ".html").
package mimetype

import "strings"

// rule pairs a path substring with its MIME type, checked in order.
type rule struct {
	substr string
	mime   string
}

var rules = []rule{
	{".html", "text/html"},
	{".gif", "image/gif"},
	{".jpg", "image/jpeg"},
}

// defaultType is returned when no rule matches.
const defaultType = "text/plain"

// For returns the MIME type for path by the first matching substring rule,
// in the order html, gif, jpg, defaulting to text/plain.
func For(path string) string {
	for _, r := range rules {
		if strings.Contains(path, r.substr) {
			return r.mime
		}
	}
	return defaultType
}
