package endpoint

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/version"
)

// DefaultRemoteTimeout bounds a remote call when no timeout is configured.
const DefaultRemoteTimeout = 30 * time.Second

// LowLevelRequest is the body of POST /lowlevel/{method}.
type LowLevelRequest struct {
	Arguments []any   `json:"arguments"`
	Options   Options `json:"options"`
	Token     string  `json:"token"`
}

// Remote delegates every verb to another daemon instance.
type Remote struct {
	name   string
	url    string
	token  string
	client *resty.Client
	logger *zap.Logger
}

// NewRemote returns an endpoint that forwards to the daemon at baseURL.
func NewRemote(name, baseURL, token string, timeout time.Duration, logger *zap.Logger) *Remote {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", version.UserAgent())

	return &Remote{
		name:   name,
		url:    strings.TrimRight(baseURL, "/"),
		token:  token,
		client: client,
		logger: logger.With(zap.String("endpoint", name), zap.String("url", baseURL)),
	}
}

func (r *Remote) Name() string { return r.name }

// URL returns the base URL of the remote daemon.
func (r *Remote) URL() string { return r.url }

func (r *Remote) Execute(ctx context.Context, opts Options, cmdline []string) int {
	r.logger.Debug("Starting remote process", zap.Strings("cmdline", cmdline))
	args := make([]any, len(cmdline))
	for i, a := range cmdline {
		args[i] = a
	}
	result, ok := r.call(ctx, MethodExecute, opts, args...)
	if !ok {
		r.logger.Error("Failed to launch remote process", zap.Strings("cmdline", cmdline))
		return -1
	}
	pid, ok := asPID(result)
	if !ok {
		r.logger.Error("Remote endpoint did not return a pid", zap.Strings("cmdline", cmdline), zap.Any("result", result))
		return -1
	}
	return pid
}

func (r *Remote) KillPID(ctx context.Context, opts Options, pid int) bool {
	if pid <= 0 {
		return false
	}
	r.logger.Debug("Killing remote process", zap.Int("pid", pid))
	return r.callBool(ctx, MethodKillPID, opts, pid)
}

func (r *Remote) KillApp(ctx context.Context, opts Options, name string) bool {
	return r.callBool(ctx, MethodKillApp, opts, name)
}

func (r *Remote) CloseWindow(ctx context.Context, opts Options, title string) bool {
	var arg any
	if title != "" {
		arg = title
	}
	return r.callBool(ctx, MethodCloseWindow, opts, arg)
}

func (r *Remote) Focus(ctx context.Context, opts Options, title string) bool {
	return r.callBool(ctx, MethodFocus, opts, title)
}

func (r *Remote) SendKeys(ctx context.Context, opts Options, keys string) bool {
	return r.callBool(ctx, MethodSendKeys, opts, keys)
}

func (r *Remote) MouseMove(ctx context.Context, opts Options, x, y int) bool {
	return r.callBool(ctx, MethodMouseMove, opts, x, y)
}

func (r *Remote) callBool(ctx context.Context, method string, opts Options, args ...any) bool {
	result, ok := r.call(ctx, method, opts, args...)
	if !ok {
		return false
	}
	b, _ := result.(bool)
	return b
}

// call posts one verb and returns the "result" field of the reply. ok is
// false when the request failed or the reply has no result.
func (r *Remote) call(ctx context.Context, method string, opts Options, args ...any) (any, bool) {
	if args == nil {
		args = []any{}
	}
	body := LowLevelRequest{
		Arguments: args,
		Options:   opts.Clone(),
		Token:     r.token,
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(r.url + "/lowlevel/" + url.PathEscape(method))
	if err != nil {
		r.logger.Error("Remote call failed", zap.String("method", method), zap.Error(err))
		return nil, false
	}
	if resp.IsError() {
		r.logger.Error("Remote call rejected",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, false
	}

	var reply map[string]any
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		r.logger.Error("Remote reply is not JSON", zap.String("method", method), zap.Error(err))
		return nil, false
	}
	result, found := reply["result"]
	if !found {
		r.logger.Warn("Remote reply has no result", zap.String("method", method))
		return nil, false
	}
	return result, true
}

func asPID(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f <= 0 {
		return -1, false
	}
	return int(f), true
}
