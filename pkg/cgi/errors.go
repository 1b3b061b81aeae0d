package cgi

import "errors"

// errUnsupportedConn indicates that conn has no way to expose a duplicable
// file descriptor (e.g. it is not backed by a TCP or Unix socket).
var errUnsupportedConn = errors.New("cgi: connection type does not support duplication to a child's stdout")
