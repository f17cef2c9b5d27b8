package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/signup"
)

// defaultTimeout is used when no timeout option is provided.
const defaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a rejection body is read for its message.
const maxErrorBody = 64 << 10

// Verify HTTPSubmitter satisfies Submitter at compile time.
var _ Submitter = (*HTTPSubmitter)(nil)

// HTTPSubmitter posts each record as JSON to an account-creation endpoint.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// HTTPOption configures an HTTPSubmitter.
type HTTPOption func(*HTTPSubmitter)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSubmitter) { s.client.Timeout = d }
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept as is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSubmitter) { s.client = c }
}

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(l *zap.Logger) HTTPOption {
	return func(s *HTTPSubmitter) { s.logger = l }
}

// NewHTTPSubmitter creates an HTTPSubmitter for endpoint.
func NewHTTPSubmitter(endpoint string, opts ...HTTPOption) (*HTTPSubmitter, error) {
	if endpoint == "" {
		return nil, errors.New("submit: http endpoint cannot be empty")
	}
	s := &HTTPSubmitter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns "http".
func (s *HTTPSubmitter) Name() string { return "http" }

// Submit posts in to the endpoint. A 2xx response is success; any other
// status is a *RejectedError.
func (s *HTTPSubmitter) Submit(ctx context.Context, in signup.Input) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &SubmitError{Submitter: s.Name(), Err: fmt.Errorf("encoding: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &SubmitError{Submitter: s.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("sign-up delivery failed", zap.String("endpoint", s.endpoint), zap.Error(err))
		return &SubmitError{Submitter: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	s.logger.Info("sign-up delivered",
		zap.String("endpoint", s.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return &RejectedError{
		StatusCode: resp.StatusCode,
		Message:    rejectionMessage(resp),
	}
}

// rejectionBody is the error shape most account APIs answer with.
type rejectionBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// rejectionMessage extracts a human-readable reason from a non-2xx response,
// falling back to the status text.
func rejectionMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var rb rejectionBody
		if json.Unmarshal(data, &rb) == nil {
			if msg := strings.TrimSpace(rb.Message); msg != "" {
				return msg
			}
			if msg := strings.TrimSpace(rb.Error); msg != "" {
				return msg
			}
		}
	}
	return http.StatusText(resp.StatusCode)
}
