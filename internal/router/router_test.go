package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/window-opener/internal/config"
	"github.com/pandeptwidyaop/window-opener/internal/desktop"
	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
	"github.com/pandeptwidyaop/window-opener/internal/program"
	"github.com/pandeptwidyaop/window-opener/internal/router"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

type nopEndpoint struct{}

func (nopEndpoint) Name() string                                               { return endpoint.LocalName }
func (nopEndpoint) Execute(context.Context, endpoint.Options, []string) int    { return 1 }
func (nopEndpoint) KillPID(context.Context, endpoint.Options, int) bool        { return true }
func (nopEndpoint) KillApp(context.Context, endpoint.Options, string) bool     { return true }
func (nopEndpoint) CloseWindow(context.Context, endpoint.Options, string) bool { return true }
func (nopEndpoint) Focus(context.Context, endpoint.Options, string) bool       { return true }
func (nopEndpoint) SendKeys(context.Context, endpoint.Options, string) bool    { return true }
func (nopEndpoint) MouseMove(context.Context, endpoint.Options, int, int) bool { return true }

func newRouter(t *testing.T, token string, lowlevel, prog bool) http.Handler {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.API.LowLevel = &lowlevel
	cfg.API.Program = &prog

	load := func(opts ...program.ManagerOption) (*program.Manager, string, error) {
		m := program.NewManager(nopEndpoint{}, opts...)
		p := m.CreateProgram("Movies")
		_, err := p.AddStartAction(nopEndpoint{}, "execute", []any{"vlc"}, nil)
		return m, token, err
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	programs, err := services.NewProgramService(context.Background(), load, nil, m)
	require.NoError(t, err)

	return router.New(router.Deps{
		Config:   cfg,
		Programs: programs,
		LowLevel: services.NewLowLevelService(nopEndpoint{}, nil, m),
		Desktop:  desktop.Unsupported{},
		Metrics:  m,
		Gatherer: reg,
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Guards(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		lowlevel bool
		program  bool
		method   string
		path     string
		body     string
		code     int
	}{
		{"program ok", "t", true, true, http.MethodGet, "/program", "", http.StatusOK},
		{"program disabled", "t", true, false, http.MethodGet, "/program", "", http.StatusForbidden},
		{"program no token", "", true, true, http.MethodGet, "/program", "", http.StatusNotFound},
		{"lowlevel ok", "t", true, true, http.MethodPost, "/lowlevel/focus", `{"token":"t","arguments":["x"]}`, http.StatusOK},
		{"lowlevel disabled", "t", false, true, http.MethodPost, "/lowlevel/focus", `{"token":"t","arguments":["x"]}`, http.StatusForbidden},
		{"lowlevel no token", "", true, true, http.MethodPost, "/lowlevel/focus", `{"token":"","arguments":["x"]}`, http.StatusNotFound},
		{"reload no token", "", true, true, http.MethodPost, "/api/reload", `{"token":""}`, http.StatusNotFound},
		{"version", "", false, false, http.MethodGet, "/api/version", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.token, tt.lowlevel, tt.program)
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newRouter(t, "t", true, true)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/program", `{"token":"t","start":"Movies"}`).Code)

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `window_opener_program_active{program="Movies"} 1`), body)
	assert.Contains(t, body, "window_opener_http_requests_total")
	assert.Contains(t, body, "window_opener_action_duration_seconds")
}
