package program

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
)

var (
	// ErrMethodNotAllowed is returned when a verb is not valid for the role.
	ErrMethodNotAllowed = errors.New("method not allowed for this role")
	// ErrNoEndpoint is returned when an action is built without an endpoint.
	ErrNoEndpoint = errors.New("no endpoint")
)

// Role says which half of a program an action belongs to.
type Role int

const (
	RoleStart Role = iota
	RoleStop
)

func (r Role) String() string {
	if r == RoleStart {
		return "start"
	}
	return "stop"
}

var roleMethods = map[Role][]string{
	RoleStart: {
		endpoint.MethodExecute,
		endpoint.MethodDelay,
		endpoint.MethodSendKeys,
		endpoint.MethodFocus,
		endpoint.MethodMouseMove,
	},
	RoleStop: {
		endpoint.MethodDelay,
		endpoint.MethodCloseWindow,
		endpoint.MethodKillPID,
		endpoint.MethodKillApp,
		endpoint.MethodSendKeys,
		endpoint.MethodFocus,
		endpoint.MethodMouseMove,
	},
}

// Allowed reports whether method may be used in role.
func (r Role) Allowed(method string) bool {
	for _, m := range roleMethods[r] {
		if m == method {
			return true
		}
	}
	return false
}

// Action is one immutable (endpoint, verb, arguments, options) step. Per-run
// state such as a spawned pid lives in a Runtime, keyed by the action's ID.
type Action struct {
	id       uuid.UUID
	role     Role
	endpoint endpoint.Endpoint
	call     endpoint.Call
	args     []any
	options  endpoint.Options
}

// NewAction validates method against role and args against method.
func NewAction(role Role, ep endpoint.Endpoint, method string, args []any, opts endpoint.Options) (*Action, error) {
	method = endpoint.NormalizeMethod(method)
	if !role.Allowed(method) {
		return nil, fmt.Errorf("%w: %q isn't a supported %s method", ErrMethodNotAllowed, method, role)
	}
	if ep == nil {
		return nil, ErrNoEndpoint
	}
	call, err := endpoint.ParseCall(method, args)
	if err != nil {
		return nil, err
	}
	return &Action{
		id:       uuid.New(),
		role:     role,
		endpoint: ep,
		call:     call,
		args:     append([]any(nil), args...),
		options:  opts.Clone(),
	}, nil
}

func (a *Action) ID() uuid.UUID               { return a.id }
func (a *Action) Role() Role                  { return a.role }
func (a *Action) Method() string              { return a.call.Method }
func (a *Action) Endpoint() endpoint.Endpoint { return a.endpoint }
func (a *Action) Arguments() []any            { return append([]any(nil), a.args...) }
func (a *Action) Options() endpoint.Options   { return a.options.Clone() }

// Execute runs the action. For execute actions the returned value is the
// pid, or nil when the launch failed; other verbs return the endpoint's bool.
// A spawned pid is recorded in rt for Finish.
func (a *Action) Execute(ctx context.Context, rt *Runtime, logger *zap.Logger, m *metrics.Metrics) any {
	if logger == nil {
		logger = zap.NewNop()
	}
	started := time.Now()

	var result any
	ok := true
	switch a.call.Method {
	case endpoint.MethodDelay:
		logger.Debug("Delaying", zap.Duration("delay", a.call.Delay))
		if err := sleep(ctx, a.call.Delay); err != nil {
			logger.Warn("Delay interrupted", zap.Error(err))
			ok = false
		}
	case endpoint.MethodExecute:
		pid := a.call.Invoke(ctx, a.endpoint, a.options).(int)
		if pid == -1 {
			logger.Error("Unable to execute command", zap.Strings("cmdline", a.call.Cmdline))
			ok = false
		} else {
			rt.track(a.id, pid)
			result = pid
		}
	default:
		result = a.call.Invoke(ctx, a.endpoint, a.options)
		ok, _ = result.(bool)
		if !ok {
			logger.Warn("Action reported failure", zap.String("method", a.call.Method), zap.Any("arguments", a.args))
		}
	}

	m.RecordAction(a.call.Method, a.endpoint.Name(), time.Since(started), ok)
	return result
}

// Finish is the cleanup half of a start action: it kills the pid recorded by
// a previous Execute, once.
func (a *Action) Finish(ctx context.Context, rt *Runtime, logger *zap.Logger) {
	pid, ok := rt.take(a.id)
	if !ok {
		if logger != nil {
			logger.Debug("No pid to kill", zap.String("method", a.call.Method), zap.Any("arguments", a.args))
		}
		return
	}
	a.endpoint.KillPID(ctx, endpoint.Options{}, pid)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runtime holds the mutable per-run state of a program's actions.
type Runtime struct {
	mu   sync.Mutex
	pids map[uuid.UUID]int
}

// NewRuntime returns an empty runtime.
func NewRuntime() *Runtime {
	return &Runtime{pids: make(map[uuid.UUID]int)}
}

func (r *Runtime) track(id uuid.UUID, pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[id] = pid
}

// take returns and forgets the pid tracked for id.
func (r *Runtime) take(id uuid.UUID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid, ok := r.pids[id]
	if ok {
		delete(r.pids, id)
	}
	return pid, ok && pid > 0
}

// PID returns the pid tracked for id, or -1.
func (r *Runtime) PID(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pid, ok := r.pids[id]; ok {
		return pid
	}
	return -1
}
