// Package server wires together the listener, size estimator, bounded
// queue, and worker pool described in spec.md §4, and runs the accept loop
// in an errgroup so that a fatal accept error is returned from Run and
// brings the whole process down (spec.md §4.8).
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/ostep-projects/wsrv/pkg/config"
	"github.com/ostep-projects/wsrv/pkg/estimator"
	"github.com/ostep-projects/wsrv/pkg/logging"
	"github.com/ostep-projects/wsrv/pkg/pipeline"
	"github.com/ostep-projects/wsrv/pkg/queue"
)

// Server binds a listening socket and dispatches accepted connections to a
// fixed pool of workers through a bounded, policy-scheduled queue.
type Server struct {
	log logging.Logger
	cfg config.ServerConfig
	q   *queue.Queue
}

// New builds a Server from cfg. The queue is constructed here so that its
// capacity and policy are fixed for the server's lifetime, per spec.md §4.3.
func New(log logging.Logger, cfg config.ServerConfig) *Server {
	return &Server{
		log: log,
		cfg: cfg,
		q:   queue.New(cfg.QueueCapacity, cfg.Policy),
	}
}

// Run binds the listener, starts the worker pool, and runs the accept loop
// under an errgroup until ctx is cancelled or accept fails fatally. Per
// spec.md §9, there is no graceful drain on shutdown: workers and in-flight
// connections are abandoned rather than waited on.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("server: listen on port %d: %w", s.cfg.Port, err)
	}

	workers, workerCtx := errgroup.WithContext(ctx)

	workers.Go(func() error {
		<-workerCtx.Done()
		return ln.Close()
	})

	workers.Go(func() error {
		return s.accept(workerCtx, ln)
	})

	// Workers run outside the group: an idle worker blocks in Dequeue and
	// never observes cancellation, so waiting on it would keep Run from
	// ever returning a fatal accept error.
	for i := 0; i < s.cfg.Workers; i++ {
		go s.work(workerCtx)
	}

	return workers.Wait()
}

// accept is the listener loop of spec.md §4.1: accept a connection, run the
// size estimator over its first bytes, and enqueue a Descriptor. Per
// spec.md §4.8 an accept failure is fatal (the listener is not expected to
// fail transiently) and propagates to cancel the rest of the group, unless
// it was caused by the listener being closed for shutdown.
func (s *Server) accept(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		// Sized to estimator.PeekBytes: bufio.Reader.Peek can never return
		// more than its backing buffer holds, and the estimator's own peek
		// is bounded by that same constant (spec.md §4.2's "up to 8 KiB").
		r := bufio.NewReaderSize(conn, estimator.PeekBytes)
		size, err := estimator.Estimate(r, s.cfg.DocumentRoot)
		if err != nil {
			s.log.Warnf("size estimate failed for %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		s.q.Enqueue(queue.Descriptor{
			Conn:         conn,
			Peer:         conn.RemoteAddr(),
			SizeEstimate: size,
			Reader:       r,
		})
	}
}

// work is a single worker pool goroutine, per spec.md §4.5: dequeue a
// descriptor, run the request pipeline against it, and close the
// connection regardless of outcome.
func (s *Server) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d := s.q.Dequeue()
		s.serveOne(d)
	}
}

func (s *Server) serveOne(d queue.Descriptor) {
	defer d.Conn.Close()

	reader := d.Reader
	if reader == nil {
		reader = bufio.NewReader(d.Conn)
	}

	if err := pipeline.Serve(s.log, d.Conn, reader, s.cfg.DocumentRoot); err != nil {
		s.log.Warnf("request from %s failed: %v", d.Peer, err)
	}
}
