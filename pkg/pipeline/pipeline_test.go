package pipeline

import (
	"bufio"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ostep-projects/wsrv/pkg/logging"
)

func serveAndRead(t *testing.T, documentRoot, request string) string {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		err := Serve(logging.Discard(), server, bufio.NewReader(strings.NewReader(request)), documentRoot)
		server.Close()
		done <- err
	}()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, _ := io.ReadAll(client)
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return string(out)
}

func TestServeStaticFileReturns200(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>hi</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := serveAndRead(t, dir, "GET /page.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 200 OK\r\n") {
		t.Errorf("unexpected status line: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/html") {
		t.Errorf("expected text/html content type: %q", out)
	}
	if !strings.HasSuffix(out, "<p>hi</p>") {
		t.Errorf("expected body to be appended: %q", out)
	}
}

func TestServeDirectoryURIServesIndexHTML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("home"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := serveAndRead(t, dir, "GET / HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 200 OK\r\n") {
		t.Errorf("unexpected status line: %q", out)
	}
	if !strings.HasSuffix(out, "home") {
		t.Errorf("expected index.html body: %q", out)
	}
}

func TestServeMissingFileReturns404(t *testing.T) {
	t.Parallel()
	out := serveAndRead(t, t.TempDir(), "GET /nope.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 404") {
		t.Errorf("unexpected status line: %q", out)
	}
}

func TestServeNonGETReturns501(t *testing.T) {
	t.Parallel()
	out := serveAndRead(t, t.TempDir(), "POST /page.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 501") {
		t.Errorf("unexpected status line: %q", out)
	}
}

func TestServeUnreadableStaticFileReturns403(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret.html"), []byte("x"), 0o200); err != nil {
		t.Fatal(err)
	}

	out := serveAndRead(t, dir, "GET /secret.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 403") {
		t.Errorf("unexpected status line: %q", out)
	}
}

func TestServeDynamicRunsCGIOverRealSocket(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := "#!/bin/sh\nprintf '\\r\\nhi from cgi'\n"
	if err := os.WriteFile(filepath.Join(dir, "spin.cgi"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("accept did not complete")
	}

	done := make(chan error, 1)
	go func() {
		done <- Serve(logging.Discard(), server, bufio.NewReader(strings.NewReader("GET /spin.cgi?3 HTTP/1.0\r\n\r\n")), dir)
	}()

	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
	server.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(out), "HTTP/1.0 200 OK") {
		t.Errorf("expected the partial status line to be present: %q", out)
	}
	if !strings.HasSuffix(string(out), "hi from cgi") {
		t.Errorf("expected the CGI child's output to follow: %q", out)
	}
}
