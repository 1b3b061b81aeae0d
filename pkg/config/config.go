// Package config parses and validates the server's process-wide,
// immutable-after-startup configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Policy is the dispatch discipline used by the bounded request queue.
type Policy int

const (
	// FIFO dequeues in enqueue order.
	FIFO Policy = iota
	// SFF dequeues the resident descriptor with the smallest size estimate.
	SFF
)

func (p Policy) String() string {
	if p == SFF {
		return "SFF"
	}
	return "FIFO"
}

// ParsePolicy parses a case-insensitive "FIFO" or "SFF".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(s) {
	case "FIFO":
		return FIFO, nil
	case "SFF":
		return SFF, nil
	default:
		return 0, fmt.Errorf("invalid scheduling algorithm %q: must be FIFO or SFF", s)
	}
}

// ServerConfig is the server's immutable, process-wide configuration.
type ServerConfig struct {
	// DocumentRoot is the directory URIs are resolved relative to.
	DocumentRoot string
	// Port is the TCP port the listener binds.
	Port int
	// Workers is the fixed worker pool size, T.
	Workers int
	// QueueCapacity is the bounded queue capacity, B.
	QueueCapacity int
	// Policy is the dispatch discipline.
	Policy Policy
}

const (
	minWorkers = 1
	maxWorkers = 100
	minBuffers = 1
	maxBuffers = 100

	defaultDocumentRoot = "."
	defaultPort         = 10000
	defaultWorkers      = 1
	defaultBuffers      = 1
	defaultPolicy       = "FIFO"
)

// Validate enforces the worker-count and queue-capacity ranges from spec.md
// §6 and a valid TCP port range. It does not check Policy; the scheduling
// algorithm name is checked by ParsePolicy.
func (c ServerConfig) Validate() error {
	if c.Workers < minWorkers || c.Workers > maxWorkers {
		return fmt.Errorf("thread count %d out of range [%d, %d]", c.Workers, minWorkers, maxWorkers)
	}
	if c.QueueCapacity < minBuffers || c.QueueCapacity > maxBuffers {
		return fmt.Errorf("buffer count %d out of range [%d, %d]", c.QueueCapacity, minBuffers, maxBuffers)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// NewRootCommand builds the cobra command exposing the five CLI flags from
// spec.md §6. fn is invoked with the parsed, validated configuration once
// cobra has finished parsing; returning an error from fn propagates through
// Execute and causes a non-zero exit alongside the usage message.
func NewRootCommand(fn func(ServerConfig) error) *cobra.Command {
	cfg := ServerConfig{}
	var schedAlg string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "A concurrent HTTP/1.0 origin server with a bounded dispatch queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := ParsePolicy(schedAlg)
			if err != nil {
				return err
			}
			cfg.Policy = policy
			if err := cfg.Validate(); err != nil {
				return err
			}
			return fn(cfg)
		},
		SilenceUsage: false,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.DocumentRoot, "basedir", "d", defaultDocumentRoot, "document root directory")
	flags.IntVarP(&cfg.Port, "port", "p", defaultPort, "listen port")
	flags.IntVarP(&cfg.Workers, "threads", "t", defaultWorkers, "worker count (1-100)")
	flags.IntVarP(&cfg.QueueCapacity, "buffers", "b", defaultBuffers, "queue capacity (1-100)")
	flags.StringVarP(&schedAlg, "schedalg", "s", defaultPolicy, "scheduling algorithm: FIFO or SFF")

	return cmd
}
