package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

// Health gates the readiness endpoint on the assistant's dependencies.
// Probes are registered during startup (the analytical store today) and
// run concurrently on every readiness poll.
type Health struct {
	logger *slog.Logger
	probes []probe
}

type probe struct {
	name string
	run  func(ctx context.Context) error
}

// Report is the JSON body served by the liveness and readiness endpoints.
type Report struct {
	Status string                 `json:"status"` // "ok" or "degraded"
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one probe's outcome.
type CheckResult struct {
	Status  string `json:"status"`            // "ok" or "fail"
	Message string `json:"message,omitempty"` // Error message on failure.
}

// NewHealth creates a Health with no probes registered.
func NewHealth(logger *slog.Logger) *Health {
	return &Health{logger: logger}
}

// Register adds a named readiness probe.
func (h *Health) Register(name string, run func(ctx context.Context) error) {
	h.probes = append(h.probes, probe{name: name, run: run})
}

// Live reports liveness. The process answering is the whole check.
func (h *Health) Live() Report {
	return Report{Status: "ok"}
}

// Ready runs every probe concurrently and aggregates the outcomes.
// A single failing probe degrades the whole report; the rest still run
// so the response names every broken dependency.
func (h *Health) Ready(ctx context.Context) Report {
	if len(h.probes) == 0 {
		return Report{Status: "ok"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	report := Report{
		Status: "ok",
		Checks: make(map[string]CheckResult, len(h.probes)),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, p := range h.probes {
		g.Go(func() error {
			err := p.run(probeCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Status = "degraded"
				report.Checks[p.name] = CheckResult{Status: "fail", Message: err.Error()}
				if h.logger != nil {
					h.logger.Warn("readiness probe failed",
						slog.String("probe", p.name),
						slog.String("error", err.Error()),
					)
				}
				return nil
			}
			report.Checks[p.name] = CheckResult{Status: "ok"}
			return nil
		})
	}
	_ = g.Wait()

	return report
}
