// Package estimator implements the pre-service size estimator used as the
// SFF scheduling key, per spec.md §4.2.
package estimator

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// PeekBytes is the maximum number of bytes inspected by Estimate, matching
// the MSG_PEEK recv() of up to 8 KiB this estimator stands in for. Callers
// must construct the *bufio.Reader passed to Estimate with
// bufio.NewReaderSize(conn, PeekBytes) — bufio.Reader.Peek can never
// return more bytes than its backing buffer holds, so a reader left at
// bufio's default 4096-byte size could never honor the full 8 KiB budget.
const PeekBytes = 8 * 1024

// spinMarker is the query-string substring that identifies a spin.cgi
// request, whose URL-supplied duration (in seconds) is used as a proxy for
// service cost, scaled to milliseconds per spec.md §4.2 step 2.
const spinMarker = "spin.cgi?"

// Estimate inspects the first bytes available on r without consuming them —
// r must be a *bufio.Reader wrapping the client connection (sized per
// PeekBytes, see above), and all subsequent reads of the request must go
// through that same *bufio.Reader so that the bytes peeked here are still
// observed in full (spec.md §9's "buffer and re-inject" alternative to a
// native peek syscall). documentRoot is used to resolve static paths for
// the stat-based estimate.
func Estimate(r *bufio.Reader, documentRoot string) (int, error) {
	peeked, err := peekAvailable(r)
	n := len(peeked)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	method, uri, ok := parseRequestLine(peeked)
	if !ok || !strings.EqualFold(method, "GET") {
		return n, nil
	}

	if idx := strings.Index(uri, spinMarker); idx >= 0 {
		query := uri[idx+len(spinMarker):]
		if seconds, err := strconv.Atoi(query); err == nil {
			return seconds * 1000, nil
		}
	}

	path := staticPath(documentRoot, uri)
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil
	}
	return int(info.Size()), nil
}

// peekAvailable returns whatever bytes the connection has already delivered,
// without waiting for more to arrive. A naive r.Peek(PeekBytes) does not do
// this: bufio.Reader.Peek(n) keeps issuing reads until n bytes are
// buffered, the backing buffer is full, or the connection errors — so it
// forces exactly the "block until PeekBytes or EOF" behavior a real
// MSG_PEEK recv() does not have. An HTTP/1.0 client that has sent its
// request line and is now idle, waiting on the response, never supplies
// the remaining bytes, so that call would hang forever.
//
// Instead, peekAvailable primes the buffer with a single underlying read —
// r.Peek(1) triggers bufio's fill() exactly once, which itself issues one
// Read on the connection and returns as soon as that Read returns any
// bytes, mirroring one recv() call — and then reports everything that read
// produced, with no further reads.
func peekAvailable(r *bufio.Reader) ([]byte, error) {
	_, primeErr := r.Peek(1)
	n := r.Buffered()
	if n > PeekBytes {
		n = PeekBytes
	}
	peeked, err := r.Peek(n)
	if len(peeked) == 0 && err == nil {
		err = primeErr
	}
	return peeked, err
}

// parseRequestLine extracts method and URI from the first LF-terminated
// line of a "GET <uri> <version>"-shaped request line. It never consumes
// from peeked; it only inspects the already-buffered bytes.
func parseRequestLine(peeked []byte) (method, uri string, ok bool) {
	line := peeked
	if idx := indexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	trimmed := strings.TrimRight(string(line), "\r\n")
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// staticPath mirrors the filesystem path resolution in spec.md §4.2 step 3:
// prepend the document root, and append index.html for a directory URI.
func staticPath(documentRoot, uri string) string {
	if strings.HasSuffix(uri, "/") {
		uri += "index.html"
	}
	return documentRoot + "/" + strings.TrimPrefix(uri, "/")
}
