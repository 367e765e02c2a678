// Package program holds the program/action orchestration model: programs
// are ordered bundles of start and stop actions bound to endpoints, and the
// Manager guarantees at most one of them is active at a time.
package program

import (
	"context"

	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
)

// Program is a named sequence of start actions with pre-stop and post-stop
// actions. It has no notion of being active; the Manager tracks that.
type Program struct {
	name     string
	start    []*Action
	preStop  []*Action
	postStop []*Action
	runtime  *Runtime
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New returns an empty program.
func New(name string, logger *zap.Logger, m *metrics.Metrics) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{
		name:    name,
		runtime: NewRuntime(),
		logger:  logger.With(zap.String("program", name)),
		metrics: m,
	}
}

func (p *Program) Name() string { return p.name }

// AddStartAction appends an action run on start and finished on stop.
func (p *Program) AddStartAction(ep endpoint.Endpoint, method string, args []any, opts endpoint.Options) (*Action, error) {
	a, err := NewAction(RoleStart, ep, method, args, opts)
	if err != nil {
		return nil, err
	}
	p.start = append(p.start, a)
	return a, nil
}

// AddStopAction appends an action run after the start actions are finished.
func (p *Program) AddStopAction(ep endpoint.Endpoint, method string, args []any, opts endpoint.Options) (*Action, error) {
	a, err := NewAction(RoleStop, ep, method, args, opts)
	if err != nil {
		return nil, err
	}
	p.postStop = append(p.postStop, a)
	return a, nil
}

// AddPreStopAction appends an action run before the start actions are finished.
func (p *Program) AddPreStopAction(ep endpoint.Endpoint, method string, args []any, opts endpoint.Options) (*Action, error) {
	a, err := NewAction(RoleStop, ep, method, args, opts)
	if err != nil {
		return nil, err
	}
	p.preStop = append(p.preStop, a)
	return a, nil
}

func (p *Program) StartActions() []*Action    { return append([]*Action(nil), p.start...) }
func (p *Program) PreStopActions() []*Action  { return append([]*Action(nil), p.preStop...) }
func (p *Program) PostStopActions() []*Action { return append([]*Action(nil), p.postStop...) }

// Runtime exposes the program's per-run state.
func (p *Program) Runtime() *Runtime { return p.runtime }

// Start runs every start action in order. A failing action never stops the
// ones after it, so Start always succeeds.
func (p *Program) Start(ctx context.Context) bool {
	p.logger.Info("Starting program", zap.Int("actions", len(p.start)))
	for _, a := range p.start {
		a.Execute(ctx, p.runtime, p.logger, p.metrics)
	}
	return true
}

// Stop runs the pre-stop actions, finishes the start actions in declaration
// order, then runs the post-stop actions.
func (p *Program) Stop(ctx context.Context) {
	p.logger.Info("Stopping program")
	for _, a := range p.preStop {
		a.Execute(ctx, p.runtime, p.logger, p.metrics)
	}
	// declaration order, not reverse
	for _, a := range p.start {
		a.Finish(ctx, p.runtime, p.logger)
	}
	for _, a := range p.postStop {
		a.Execute(ctx, p.runtime, p.logger, p.metrics)
	}
}
