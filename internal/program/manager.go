package program

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
)

// EventType names a program transition.
type EventType string

const (
	EventStarted EventType = "started"
	EventStopped EventType = "stopped"
)

// Event reports a program transition.
type Event struct {
	Type    EventType `json:"type"`
	Program string    `json:"program"`
	Time    time.Time `json:"time"`
}

// RemoteFactory builds the endpoint for a configured remote daemon.
type RemoteFactory func(name, url, token string) endpoint.Endpoint

// Manager is the registry of programs and endpoints. It owns the single
// active-program handle; Start and Stop are serialized.
type Manager struct {
	// transition serializes Start and Stop end to end
	transition sync.Mutex

	mu        sync.RWMutex
	programs  map[string]*Program
	order     []string
	endpoints map[string]endpoint.Endpoint
	epOrder   []string
	active    *Program

	newRemote RemoteFactory
	onEvent   func(Event)
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the collectors the manager and its programs report to.
func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// WithRemoteFactory replaces how remote endpoints are built.
func WithRemoteFactory(f RemoteFactory) ManagerOption {
	return func(m *Manager) { m.newRemote = f }
}

// WithEventHandler registers a callback for program transitions. It is
// called while the transition lock is held and must not call back into the
// manager's Start or Stop.
func WithEventHandler(f func(Event)) ManagerOption {
	return func(m *Manager) { m.onEvent = f }
}

// NewManager returns a manager whose only endpoint is local.
func NewManager(local endpoint.Endpoint, opts ...ManagerOption) *Manager {
	m := &Manager{
		programs:  make(map[string]*Program),
		endpoints: make(map[string]endpoint.Endpoint),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newRemote == nil {
		logger := m.logger
		m.newRemote = func(name, url, token string) endpoint.Endpoint {
			return endpoint.NewRemote(name, url, token, endpoint.DefaultRemoteTimeout, logger)
		}
	}
	m.endpoints[endpoint.LocalName] = local
	m.epOrder = []string{endpoint.LocalName}
	return m
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// CreateEndpoint registers a remote endpoint. If the name is taken the
// existing endpoint is returned unchanged.
func (m *Manager) CreateEndpoint(name, url, token string) endpoint.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if ep, ok := m.endpoints[k]; ok {
		return ep
	}
	ep := m.newRemote(k, url, token)
	m.endpoints[k] = ep
	m.epOrder = append(m.epOrder, k)
	return ep
}

// CreateProgram registers an empty program. If the name is taken the
// existing program is returned unchanged.
func (m *Manager) CreateProgram(name string) *Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if p, ok := m.programs[k]; ok {
		return p
	}
	p := New(name, m.logger, m.metrics)
	m.programs[k] = p
	m.order = append(m.order, k)
	return p
}

// Endpoint looks up an endpoint by name.
func (m *Manager) Endpoint(name string) (endpoint.Endpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ep, ok := m.endpoints[key(name)]
	return ep, ok
}

// Program looks up a program by name.
func (m *Manager) Program(name string) (*Program, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.programs[key(name)]
	return p, ok
}

// Programs returns program names in the order they were created.
func (m *Manager) Programs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.order))
	for _, k := range m.order {
		names = append(names, m.programs[k].Name())
	}
	return names
}

// Endpoints returns endpoint names, local first and remotes in the order
// they were created.
func (m *Manager) Endpoints() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.epOrder...)
}

// ActiveProgram returns the active program's name, or "" when none is.
func (m *Manager) ActiveProgram() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ""
	}
	return m.active.Name()
}

// Start makes name the active program, stopping whichever program was
// active first. Starting the active program again is a no-op. It returns
// false only for unknown programs.
func (m *Manager) Start(ctx context.Context, name string) bool {
	m.transition.Lock()
	defer m.transition.Unlock()

	p, ok := m.Program(name)
	if !ok {
		m.logger.Error("Program does not exist", zap.String("program", name))
		return false
	}

	m.mu.RLock()
	current := m.active
	m.mu.RUnlock()

	if current == p {
		m.logger.Warn("Program is already active", zap.String("program", p.Name()))
		return true
	}
	if current != nil {
		m.stopActive(ctx, current)
	}

	if !p.Start(ctx) {
		return false
	}
	m.mu.Lock()
	m.active = p
	m.mu.Unlock()

	m.metrics.RecordTransition(p.Name(), "start")
	m.emit(EventStarted, p.Name())
	return true
}

// Stop stops the active program. With a non-empty name it only acts when
// that program is the active one. It returns false when nothing was stopped.
func (m *Manager) Stop(ctx context.Context, name string) bool {
	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.RLock()
	current := m.active
	m.mu.RUnlock()

	if current == nil {
		return false
	}
	if name != "" && key(name) != key(current.Name()) {
		return false
	}
	m.stopActive(ctx, current)
	return true
}

// stopActive runs p's stop sequence and clears the active handle. The
// transition lock must be held.
func (m *Manager) stopActive(ctx context.Context, p *Program) {
	p.Stop(ctx)
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()

	m.metrics.RecordTransition(p.Name(), "stop")
	m.emit(EventStopped, p.Name())
}

func (m *Manager) emit(t EventType, name string) {
	if m.onEvent == nil {
		return
	}
	m.onEvent(Event{Type: t, Program: name, Time: time.Now()})
}
