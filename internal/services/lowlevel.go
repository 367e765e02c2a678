package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
)

// LowLevelService runs single verbs on this machine on behalf of the
// low-level API, which is what remote endpoints talk to.
type LowLevelService struct {
	local   endpoint.Endpoint
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewLowLevelService(local endpoint.Endpoint, logger *zap.Logger, m *metrics.Metrics) *LowLevelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowLevelService{local: local, logger: logger, metrics: m}
}

// Call runs method with args. The result is the pid (or nil) for execute and
// a bool for every other verb. Delay is accepted but ignored.
func (s *LowLevelService) Call(ctx context.Context, method string, args []any, opts endpoint.Options) (any, error) {
	method = endpoint.NormalizeMethod(method)
	if !endpoint.IsMethod(method) {
		return nil, endpoint.ErrUnknownMethod
	}
	if method == endpoint.MethodDelay {
		s.logger.Info("Ignoring delay method")
		return false, nil
	}

	call, err := endpoint.ParseCall(method, args)
	if err != nil {
		if errors.Is(err, endpoint.ErrBadArguments) {
			s.metrics.RecordLowLevel(method, false)
		}
		return nil, err
	}

	s.logger.Debug("Low-level call", zap.String("method", method), zap.Any("arguments", args))
	result := call.Invoke(ctx, s.local, opts.Clone())

	ok := true
	switch r := result.(type) {
	case int:
		if r == -1 {
			result, ok = nil, false
		}
	case bool:
		ok = r
	}
	s.metrics.RecordLowLevel(method, ok)
	return result, nil
}
