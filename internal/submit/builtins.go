package submit

import (
	"time"

	"go.uber.org/zap"
)

// BuiltinOptions carries the settings the built-in submitters need.
type BuiltinOptions struct {
	Endpoint string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// RegisterBuiltins registers the "log" and "http" submitters on reg.
// The http factory fails at creation time when no endpoint is set.
func RegisterBuiltins(reg *Registry, opts BuiltinOptions) {
	reg.Register("log", func() (Submitter, error) {
		return NewLogSubmitter(opts.Logger), nil
	})
	reg.Register("http", func() (Submitter, error) {
		httpOpts := []HTTPOption{}
		if opts.Timeout > 0 {
			httpOpts = append(httpOpts, WithTimeout(opts.Timeout))
		}
		if opts.Logger != nil {
			httpOpts = append(httpOpts, WithLogger(opts.Logger))
		}
		return NewHTTPSubmitter(opts.Endpoint, httpOpts...)
	})
}
