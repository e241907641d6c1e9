// internal/chaos/engine.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrSteadyState aborts an experiment whose probes fail before any fault is
// injected.
var ErrSteadyState = errors.New("steady state invalid - aborting experiment")

// Experiment injects faults into a running marketplace and watches its probes.
type Experiment struct {
	Name        string
	Hypothesis  string
	SteadyState []Probe
	Method      []Action
	Rollback    []Action
	Duration    time.Duration
	Interval    time.Duration
}

// Probe measures one system property.
type Probe struct {
	Name      string
	Query     func(context.Context) (float64, error)
	Threshold Threshold
}

type Threshold struct {
	Operator string // >, <, >=, <=, ==
	Value    float64
}

// Holds reports whether v satisfies the threshold.
func (t Threshold) Holds(v float64) bool {
	switch t.Operator {
	case ">":
		return v > t.Value
	case "<":
		return v < t.Value
	case ">=":
		return v >= t.Value
	case "<=":
		return v <= t.Value
	case "==":
		return v == t.Value
	default:
		return false
	}
}

// Action is a fault injection or its rollback.
type Action struct {
	Target  string
	Execute func(context.Context) error
}

type Violation struct {
	Probe    string    `json:"probe"`
	Expected float64   `json:"expected"`
	Actual   float64   `json:"actual"`
	At       time.Time `json:"at"`
}

// Report is the outcome of one experiment run.
type Report struct {
	Experiment     string         `json:"experiment"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	SteadyState    bool           `json:"steady_state"`
	HypothesisHeld bool           `json:"hypothesis_held"`
	Violations     []Violation    `json:"violations"`
	Errors         []string       `json:"errors"`
	MTTR           *time.Duration `json:"mttr,omitempty"`
}

// Engine runs experiments one at a time.
type Engine struct {
	tracer trace.Tracer
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewEngine(log *zap.SugaredLogger) *Engine {
	return &Engine{
		tracer: otel.Tracer("booknest/chaos"),
		log:    log,
		now:    time.Now,
	}
}

// Run checks the steady state, injects the method, samples the probes until
// Duration elapses, rolls back, and finally checks that every probe holds
// again.
func (e *Engine) Run(ctx context.Context, exp Experiment) (*Report, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.run_experiment",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	report := &Report{Experiment: exp.Name, StartedAt: e.now()}
	e.log.Infow("Starting experiment", "experiment", exp.Name, "hypothesis", exp.Hypothesis)

	span.AddEvent("validating_steady_state")
	if violations := e.sample(ctx, exp.SteadyState, report); len(violations) > 0 {
		report.Violations = violations
		report.FinishedAt = e.now()
		return report, ErrSteadyState
	}
	report.SteadyState = true

	span.AddEvent("injecting_faults")
	e.execute(ctx, exp.Method, report)

	span.AddEvent("observing")
	var firstViolation time.Time
	if exp.Duration > 0 {
		interval := exp.Interval
		if interval <= 0 {
			interval = exp.Duration / 10
		}
		e.observe(ctx, exp, interval, report, &firstViolation)
	}

	span.AddEvent("rolling_back")
	e.execute(ctx, exp.Rollback, report)

	span.AddEvent("validating_recovery")
	final := e.sample(ctx, exp.SteadyState, report)
	report.Violations = append(report.Violations, final...)
	report.HypothesisHeld = len(final) == 0
	report.FinishedAt = e.now()
	if report.HypothesisHeld && !firstViolation.IsZero() {
		mttr := report.FinishedAt.Sub(firstViolation)
		report.MTTR = &mttr
	}

	span.SetAttributes(
		attribute.Bool("hypothesis_held", report.HypothesisHeld),
		attribute.Int("violations", len(report.Violations)),
	)
	e.log.Infow("Experiment finished",
		"experiment", exp.Name,
		"hypothesis_held", report.HypothesisHeld,
		"violations", len(report.Violations),
		"errors", len(report.Errors),
	)
	return report, nil
}

func (e *Engine) observe(ctx context.Context, exp Experiment, interval time.Duration, report *Report, firstViolation *time.Time) {
	observeCtx, cancel := context.WithTimeout(ctx, exp.Duration)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-observeCtx.Done():
			return
		case <-ticker.C:
			violations := e.sample(ctx, exp.SteadyState, report)
			if len(violations) > 0 && firstViolation.IsZero() {
				*firstViolation = violations[0].At
			}
			report.Violations = append(report.Violations, violations...)
		}
	}
}

func (e *Engine) sample(ctx context.Context, probes []Probe, report *Report) []Violation {
	var violations []Violation
	for _, p := range probes {
		v, err := p.Query(ctx)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", p.Name, err))
			violations = append(violations, Violation{Probe: p.Name, Expected: p.Threshold.Value, Actual: -1, At: e.now()})
			continue
		}
		if !p.Threshold.Holds(v) {
			violations = append(violations, Violation{Probe: p.Name, Expected: p.Threshold.Value, Actual: v, At: e.now()})
		}
	}
	return violations
}

func (e *Engine) execute(ctx context.Context, actions []Action, report *Report) {
	for _, a := range actions {
		if err := a.Execute(ctx); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", a.Target, err))
			e.log.Warnw("Chaos action failed", "target", a.Target, "error", err)
		}
	}
}
