// Package pipeline implements the per-request HTTP pipeline of spec.md §4.6:
// parse request line and headers, resolve the URI to a filesystem path,
// serve static content via memory-mapped I/O or hand dynamic content to the
// CGI bridge, and emit the fixed error responses on failure.
package pipeline

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ostep-projects/wsrv/pkg/cgi"
	"github.com/ostep-projects/wsrv/pkg/httperr"
	"github.com/ostep-projects/wsrv/pkg/logging"
	"github.com/ostep-projects/wsrv/pkg/mimetype"
)

// Serve runs the full request pipeline against conn, using r as the buffered
// reader that already owns whatever bytes the size estimator peeked
// (spec.md §9: the estimator must not cause any bytes to be lost to the
// pipeline). It never closes conn; the caller (the worker) is responsible
// for that regardless of outcome, per spec.md §4.5.
func Serve(log logging.Logger, conn net.Conn, r *bufio.Reader, documentRoot string) error {
	line, ok, err := readLine(r)
	if !ok {
		if err != nil {
			return fmt.Errorf("pipeline: reading request line: %w", err)
		}
		return fmt.Errorf("pipeline: empty request")
	}

	method, uri, version, parsed := parseRequestLine(line)
	if !parsed || !strings.EqualFold(method, "GET") {
		err := httperr.NotImplemented(method).Write(conn)
		log.Infof("%s %s -> 501 (0 bytes)", method, uri)
		return err
	}

	if err := consumeHeaders(r); err != nil {
		return fmt.Errorf("pipeline: reading headers: %w", err)
	}

	relPath, cgiArgs, dynamic := classify(uri)
	req := Request{
		Method:    method,
		URI:       uri,
		Version:   version,
		Path:      documentRoot + strings.TrimPrefix(relPath, "."),
		CGIArgs:   cgiArgs,
		IsDynamic: dynamic,
	}

	info, statErr := os.Stat(req.Path)
	if statErr != nil {
		err := httperr.NotFound(req.Path).Write(conn)
		log.Infof("%s %s -> 404 (0 bytes)", req.Method, req.URI)
		return err
	}

	var status, bytesServed int
	var serveErr error
	if req.IsDynamic {
		status, serveErr = serveDynamic(log, conn, info, req)
		log.Infof("%s %s -> %d (cgi)", req.Method, req.URI, status)
	} else {
		status, bytesServed, serveErr = serveStatic(conn, info, req)
		log.Infof("%s %s -> %d (%d bytes)", req.Method, req.URI, status, bytesServed)
	}
	return serveErr
}

// serveStatic implements spec.md §4.6 step 5: require a readable regular
// file, emit the full response header, then memory-map the file and write
// the mapping to the socket in one bulk write. It returns the HTTP status
// actually written and the number of body bytes served.
func serveStatic(conn net.Conn, info os.FileInfo, req Request) (status, bytesServed int, err error) {
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o400 == 0 {
		return 403, 0, httperr.Forbidden(req.Path).Write(conn)
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return 403, 0, httperr.Forbidden(req.Path).Write(conn)
	}
	defer f.Close()

	size := int(info.Size())
	var body []byte
	if size > 0 {
		body, err = unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
		if err != nil {
			return 0, 0, fmt.Errorf("pipeline: mmap %s: %w", req.Path, err)
		}
		defer unix.Munmap(body)
	}

	header := fmt.Sprintf(
		"HTTP/1.0 200 OK\r\nServer: OSTEP WebServer\r\nContent-Length: %d\r\nContent-Type: %s\r\n\r\n",
		size, mimetype.For(req.Path),
	)
	if _, err := conn.Write([]byte(header)); err != nil {
		return 0, 0, fmt.Errorf("pipeline: writing header: %w", err)
	}
	if size > 0 {
		if _, err := conn.Write(body); err != nil {
			return 0, 0, fmt.Errorf("pipeline: writing body: %w", err)
		}
	}
	return 200, size, nil
}

// serveDynamic implements spec.md §4.6 step 6: require an executable
// regular file, emit the partial status line, and hand off to the CGI
// bridge, which completes the response. It returns the status that was
// written to the client (200, unless the permission check failed).
func serveDynamic(log logging.Logger, conn net.Conn, info os.FileInfo, req Request) (status int, err error) {
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o100 == 0 {
		return 403, httperr.Forbidden(req.Path).Write(conn)
	}

	if _, err := conn.Write([]byte("HTTP/1.0 200 OK\r\nServer: OSTEP WebServer\r\n")); err != nil {
		return 0, fmt.Errorf("pipeline: writing partial header: %w", err)
	}
	return 200, cgi.Run(log, conn, req.Path, req.CGIArgs)
}
