package health

import (
	"context"
	"fmt"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine answers but an auxiliary component does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as check keys.
const (
	ComponentEngine = "engine"
	ComponentUsage  = "usage"
)

// DefaultTimeout bounds every ping.
const DefaultTimeout = time.Second

// Report aggregates health check results. Err holds the engine failure when
// Status is Unhealthy.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Err    error
}

// Service coordinates health checks.
type Service struct {
	engine  EnginePinger
	usage   UsagePinger
	timeout time.Duration
}

// New creates a Service. usage can be nil; timeout <= 0 selects DefaultTimeout.
func New(engine EnginePinger, usage UsagePinger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{engine: engine, usage: usage, timeout: timeout}
}

// Check pings every component, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	engineErr := s.ping(ctx, s.engine.Ping)
	if engineErr != nil {
		checks[ComponentEngine] = CheckError
		status = Unhealthy
	} else {
		checks[ComponentEngine] = CheckOK
	}

	if s.usage != nil {
		if err := s.ping(ctx, s.usage.Ping); err != nil {
			checks[ComponentUsage] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[ComponentUsage] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks, Err: engineErr}
}

func (s *Service) ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("health ping: %w", err)
	}
	return nil
}
