package serde

import (
	"os"
	"strconv"
)

// DefaultMaxDepth bounds message nesting when WithMaxDepth is not given. It can be
// overridden through the PROTOSERDE_MAX_DEPTH environment variable.
var DefaultMaxDepth = 10000

func init() {
	if v := os.Getenv("PROTOSERDE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			DefaultMaxDepth = n
		}
	}
}

// Option configures a serialization pass.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth limits how many message levels below the root the walk may
// descend. Values below one are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
