// Package logging builds the zap logger used across signup.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to w at the given level
// ("debug", "info", "warn" or "error").
func New(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		lvl,
	)
	return zap.New(core), nil
}

// Open returns a logger for path, appending to the file, or for fallback when
// path is empty. The returned close func syncs the logger and closes the file.
func Open(path, level string, fallback io.Writer) (*zap.Logger, func() error, error) {
	w := fallback
	var f *os.File
	if path != "" {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: opening %s: %w", path, err)
		}
		w = f
	}

	logger, err := New(w, level)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, nil, err
	}

	closeFn := func() error {
		_ = logger.Sync()
		if f != nil {
			return f.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

// Deferred buffers writes until Flush. It keeps log lines off a terminal that
// a full-screen UI is drawing on.
type Deferred struct {
	mu  sync.Mutex
	buf bytes.Buffer
	dst io.Writer
}

// NewDeferred returns a Deferred that flushes to dst.
func NewDeferred(dst io.Writer) *Deferred {
	return &Deferred{dst: dst}
}

func (d *Deferred) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Flush writes everything buffered so far to the destination.
func (d *Deferred) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf.Len() == 0 {
		return nil
	}
	_, err := d.dst.Write(d.buf.Bytes())
	d.buf.Reset()
	return err
}
