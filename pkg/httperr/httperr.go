// Package httperr renders the fixed HTML error template used for every
// non-2xx response, per spec.md §4.6 and §8 scenarios S2/S3.
package httperr

import (
	"fmt"
	"io"
)

// Error describes one HTTP error response.
type Error struct {
	Status   int
	ShortMsg string
	LongMsg  string
	Cause    string
}

var (
	// NotImplemented is emitted for a malformed request line or a method
	// other than GET (spec.md §4.6 step 1, scenario S3).
	NotImplemented = func(cause string) Error {
		return Error{501, "Not Implemented", "server does not implement this method", cause}
	}
	// NotFound is emitted when stat fails on the resolved path (spec.md
	// §4.6 step 4, scenario S2).
	NotFound = func(cause string) Error {
		return Error{404, "Not found", "server could not find the requested resource", cause}
	}
	// Forbidden is emitted on a file type/permission mismatch (spec.md
	// §4.6 steps 5-6).
	Forbidden = func(cause string) Error {
		return Error{403, "Forbidden", "server does not have permission to serve the requested resource", cause}
	}
)

const bodyTemplate = "" +
	"<!doctype html>\r\n" +
	"<head>\r\n" +
	"  <title>OSTEP WebServer Error</title>\r\n" +
	"</head>\r\n" +
	"<body>\r\n" +
	"  <h2>%d: %s</h2>\r\n" +
	"  <p>%s: %s</p>\r\n" +
	"</body>\r\n" +
	"</html>\r\n"

// Body renders the fixed HTML error body.
func (e Error) Body() string {
	return fmt.Sprintf(bodyTemplate, e.Status, e.ShortMsg, e.LongMsg, e.Cause)
}

// Write emits the full HTTP/1.0 error response (status line, Content-Type,
// Content-Length, blank line, body) to w.
func (e Error) Write(w io.Writer) error {
	body := e.Body()
	_, err := fmt.Fprintf(w,
		"HTTP/1.0 %d %s\r\nServer: OSTEP WebServer\r\nContent-Type: text/html\r\nContent-Length: %d\r\n\r\n%s",
		e.Status, e.ShortMsg, len(body), body,
	)
	return err
}
