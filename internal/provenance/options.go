package provenance

import (
	"io"
	"log/slog"
)

// DefaultNodeCapacity is the number of batch slots per staging node.
// 126 slots plus the node header keep a node close to 1 KiB on 64-bit targets.
const DefaultNodeCapacity = 126

type options struct {
	nodeCapacity int
	logger       *slog.Logger
	checks       bool
}

func defaultOptions() options {
	return options{
		nodeCapacity: DefaultNodeCapacity,
		logger:       slog.Default(),
	}
}

// Option configures a Map during construction.
type Option func(*options)

// WithNodeCapacity sets the number of batches a staging node holds.
// A value <= 0 resets to DefaultNodeCapacity.
func WithNodeCapacity(n int) Option {
	return func(o *options) {
		if n <= 0 {
			o.nodeCapacity = DefaultNodeCapacity
			return
		}
		o.nodeCapacity = n
	}
}

// WithLogger sets the logger used for drain diagnostics.
// A nil logger discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = l
	}
}

// WithInvariantChecks enables internal consistency checks on the staging
// list. A violated check panics with *InvariantError.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.checks = enabled
	}
}
