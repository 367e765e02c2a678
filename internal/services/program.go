package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/metrics"
	"github.com/pandeptwidyaop/window-opener/internal/program"
)

var (
	ErrReloadWhileActive = errors.New("can't reload configuration with an active program")
	ErrProgramNotFound   = errors.New("program not found")
)

// ProgramLoader builds a fresh manager from configuration, applying opts,
// and returns it with the API token.
type ProgramLoader func(opts ...program.ManagerOption) (*program.Manager, string, error)

// ProgramService owns the current program manager and swaps it on reload.
// Transitions run under the daemon's context so a dropped HTTP request
// never abandons a half-finished start or stop.
type ProgramService struct {
	ctx     context.Context
	load    ProgramLoader
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	manager *program.Manager
	token   string

	// inflight counts running transitions; it is only raised under mu.RLock
	inflight atomic.Int32

	streams   []chan program.Event
	streamsMu sync.RWMutex
}

// NewProgramService loads the initial configuration.
func NewProgramService(ctx context.Context, load ProgramLoader, logger *zap.Logger, m *metrics.Metrics) (*ProgramService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProgramService{
		ctx:     ctx,
		load:    load,
		logger:  logger,
		metrics: m,
	}
	manager, token, err := s.build()
	if err != nil {
		return nil, err
	}
	s.manager, s.token = manager, token
	return s, nil
}

func (s *ProgramService) build() (*program.Manager, string, error) {
	return s.load(program.WithMetrics(s.metrics), program.WithEventHandler(s.broadcast))
}

// Token returns the shared API token, empty when the API is disabled.
func (s *ProgramService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Manager returns the current manager.
func (s *ProgramService) Manager() *program.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager
}

func (s *ProgramService) Programs() []string {
	return s.Manager().Programs()
}

// Active returns the active program's name, or "".
func (s *ProgramService) Active() string {
	return s.Manager().ActiveProgram()
}

// Start activates name. It returns ErrProgramNotFound for unknown names.
func (s *ProgramService) Start(name string) (bool, error) {
	m, done, err := s.begin(name)
	if err != nil {
		return false, err
	}
	defer done()
	return m.Start(s.ctx, name), nil
}

// Stop stops the active program; see program.Manager.Stop.
func (s *ProgramService) Stop(name string) (bool, error) {
	m, done, err := s.begin(name)
	if err != nil {
		return false, err
	}
	defer done()
	return m.Stop(s.ctx, name), nil
}

// begin pins the current manager for one transition. The lock is released
// before the transition runs so readers never queue behind a waiting
// reload; the inflight count makes Reload refuse instead.
func (s *ProgramService) begin(name string) (*program.Manager, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name != "" {
		if _, ok := s.manager.Program(name); !ok {
			return nil, nil, ErrProgramNotFound
		}
	}
	s.inflight.Add(1)
	return s.manager, func() { s.inflight.Add(-1) }, nil
}

// Reload rebuilds the manager from configuration. It is refused while a
// program is active or a transition is running; on error the current
// manager stays in place.
func (s *ProgramService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight.Load() > 0 {
		s.logger.Warn("Can't reload configuration while a program is starting or stopping")
		s.metrics.RecordReload(false)
		return ErrReloadWhileActive
	}
	if active := s.manager.ActiveProgram(); active != "" {
		s.logger.Warn("Can't reload configuration with an active program", zap.String("active", active))
		s.metrics.RecordReload(false)
		return ErrReloadWhileActive
	}

	manager, token, err := s.build()
	if err != nil {
		s.logger.Error("Failed to reload configuration", zap.Error(err))
		s.metrics.RecordReload(false)
		return err
	}
	s.manager, s.token = manager, token
	s.metrics.RecordReload(true)
	s.logger.Info("Configuration has been reloaded", zap.Int("programs", len(manager.Programs())))
	return nil
}

// Subscribe returns a channel receiving every program transition.
func (s *ProgramService) Subscribe() chan program.Event {
	ch := make(chan program.Event, 16)

	s.streamsMu.Lock()
	s.streams = append(s.streams, ch)
	s.streamsMu.Unlock()

	return ch
}

func (s *ProgramService) Unsubscribe(ch chan program.Event) {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()

	for i, c := range s.streams {
		if c == ch {
			s.streams = append(s.streams[:i], s.streams[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *ProgramService) broadcast(e program.Event) {
	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()

	for _, ch := range s.streams {
		select {
		case ch <- e:
		default:
		}
	}
}
