package submit

import (
	"context"

	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/signup"
)

// Verify LogSubmitter satisfies Submitter at compile time.
var _ Submitter = (*LogSubmitter)(nil)

// LogSubmitter accepts every record and only logs it. The password is never
// written.
type LogSubmitter struct {
	logger *zap.Logger
}

// NewLogSubmitter creates a LogSubmitter. A nil logger discards output.
func NewLogSubmitter(logger *zap.Logger) *LogSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSubmitter{logger: logger}
}

// Name returns "log".
func (s *LogSubmitter) Name() string { return "log" }

// Submit logs in and returns nil.
func (s *LogSubmitter) Submit(ctx context.Context, in signup.Input) error {
	if err := ctx.Err(); err != nil {
		return &SubmitError{Submitter: s.Name(), Err: err}
	}
	s.logger.Info("sign-up received",
		zap.String("name", in.Name),
		zap.String("email", in.Email),
		zap.Float64("phone_number", in.PhoneNumber),
		zap.Int("password_length", len([]rune(in.Password))),
	)
	return nil
}
