package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Failover pairs the configured provider with a standby that absorbs
// outages of the primary. A request moves to the standby only when the
// primary itself failed; a canceled or expired context is returned as-is
// since the standby would hit the same deadline.
type Failover struct {
	primary Provider
	standby Provider
	logger  *slog.Logger
}

// NewFailover wraps primary with standby.
func NewFailover(primary, standby Provider, logger *slog.Logger) *Failover {
	return &Failover{primary: primary, standby: standby, logger: logger}
}

// Name reports both backends, primary first.
func (f *Failover) Name() string {
	return f.primary.Name() + "+" + f.standby.Name()
}

// SendMessage asks the primary and falls back to the standby on failure.
func (f *Failover) SendMessage(ctx context.Context, req *Request) (*Response, error) {
	resp, err := f.primary.SendMessage(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.logger.WarnContext(ctx, "primary provider failed, switching to standby",
		slog.String("primary", f.primary.Name()),
		slog.String("standby", f.standby.Name()),
		slog.String("error", err.Error()),
	)

	resp, standbyErr := f.standby.SendMessage(ctx, req)
	if standbyErr != nil {
		return nil, fmt.Errorf("%s failed (%v); %s failed: %w",
			f.primary.Name(), err, f.standby.Name(), standbyErr)
	}
	f.logger.InfoContext(ctx, "standby provider answered",
		slog.String("standby", f.standby.Name()),
	)
	return resp, nil
}
