// Package cgi implements the subprocess bridge described in spec.md §4.7:
// the server writes a partial status line and then hands the client socket
// to a CGI child's standard output, leaving the child to finish the
// response headers and body.
package cgi

import (
	"net"
	"os"
	"os/exec"
	"sync"

	"github.com/ostep-projects/wsrv/pkg/diagnostics"
	"github.com/ostep-projects/wsrv/pkg/logging"
)

// forkLock serializes process creation process-wide, per spec.md §5 ("process
// forking is serialized by a dedicated lock to avoid file-descriptor races
// around the inheritance window").
var forkLock sync.Mutex

// Run executes the CGI binary at path with QUERY_STRING set to query and the
// given conn's underlying file descriptor duplicated onto the child's
// standard output, then waits for the child to exit. It does not write any
// part of the HTTP response itself; callers must write the partial status
// line before calling Run (spec.md §4.6 step 6).
func Run(log logging.Logger, conn net.Conn, path, query string) error {
	connFile, err := connFile(conn)
	if err != nil {
		return err
	}
	defer connFile.Close()

	// exec.Command supplies only argv[0] (the path itself); the CGI
	// contract (spec.md §6) calls for an empty argument vector, and Go's
	// os/exec has no way to omit argv[0] the way a raw execve(path, {NULL},
	// environ) call can, so this is the closest idiomatic equivalent.
	cmd := exec.Command(path)
	cmd.Env = append(os.Environ(), "QUERY_STRING="+query)
	cmd.Stdout = connFile

	stderrTail := diagnostics.NewStderrTail(1024)
	cmd.Stderr = stderrTail

	forkLock.Lock()
	startErr := cmd.Start()
	forkLock.Unlock()
	if startErr != nil {
		return startErr
	}

	if err := cmd.Wait(); err != nil {
		if tail := stderrTail.String(); tail != "" {
			log.Warnf("CGI process %s exited with error: %v; stderr tail: %s", path, err, tail)
		} else {
			log.Warnf("CGI process %s exited with error: %v", path, err)
		}
		// The spec does not have the server synthesize a replacement body:
		// the child's own (possibly partial) output is whatever the client
		// receives.
		return err
	}
	return nil
}

// connFile duplicates conn's underlying file descriptor as an *os.File
// suitable for use as a child process's standard output. This is the Go
// equivalent of dup2(clientfd, STDOUT_FILENO): os/exec recognizes an
// *os.File assigned to Cmd.Stdout and wires the duplicated descriptor
// directly into the child, rather than copying through a pipe.
func connFile(conn net.Conn) (*os.File, error) {
	type fileProvider interface {
		File() (*os.File, error)
	}
	fp, ok := conn.(fileProvider)
	if !ok {
		return nil, errUnsupportedConn
	}
	return fp.File()
}
