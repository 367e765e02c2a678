package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/program"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

const testToken = "s3cret"

// fakeEndpoint records verbs and answers with fixed results.
type fakeEndpoint struct {
	mu    sync.Mutex
	calls []string
	pid   int
}

func (f *fakeEndpoint) add(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeEndpoint) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEndpoint) Name() string { return endpoint.LocalName }

func (f *fakeEndpoint) Execute(_ context.Context, _ endpoint.Options, cmdline []string) int {
	f.add("execute " + cmdline[0])
	return f.pid
}

func (f *fakeEndpoint) KillPID(context.Context, endpoint.Options, int) bool {
	f.add("kill pid")
	return true
}

func (f *fakeEndpoint) KillApp(_ context.Context, _ endpoint.Options, name string) bool {
	f.add("kill app " + name)
	return true
}

func (f *fakeEndpoint) CloseWindow(_ context.Context, opts endpoint.Options, title string) bool {
	f.add("close window " + title)
	return !opts.Bool("fail")
}

func (f *fakeEndpoint) Focus(_ context.Context, _ endpoint.Options, title string) bool {
	f.add("focus " + title)
	return true
}

func (f *fakeEndpoint) SendKeys(_ context.Context, _ endpoint.Options, keys string) bool {
	f.add("sendkeys " + keys)
	return true
}

func (f *fakeEndpoint) MouseMove(context.Context, endpoint.Options, int, int) bool {
	f.add("mouse move")
	return true
}

func newProgramService(t *testing.T, ep endpoint.Endpoint, token string, names ...string) *services.ProgramService {
	t.Helper()
	load := func(opts ...program.ManagerOption) (*program.Manager, string, error) {
		m := program.NewManager(ep, opts...)
		for _, n := range names {
			p := m.CreateProgram(n)
			if _, err := p.AddStartAction(ep, "execute", []any{n}, nil); err != nil {
				return nil, "", err
			}
		}
		return m, token, nil
	}
	svc, err := services.NewProgramService(context.Background(), load, nil, nil)
	require.NoError(t, err)
	return svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}
