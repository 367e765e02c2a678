// Package endpoint implements the executors of low-level automation verbs.
//
// An Endpoint runs a verb either on this machine (Local) or by delegating it
// to another daemon over HTTP (Remote). Both variants share one method set so
// program actions never need to know where they run. No method returns an
// error: failures are logged here and reported as -1 (Execute) or false.
package endpoint

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Verbs understood by endpoints, programs and the low-level API. The names
// are part of the remote wire protocol.
const (
	MethodExecute     = "execute"
	MethodDelay       = "delay"
	MethodKillApp     = "kill app"
	MethodKillPID     = "kill pid"
	MethodCloseWindow = "close window"
	MethodSendKeys    = "sendkeys"
	MethodFocus       = "focus"
	MethodMouseMove   = "mouse move"
)

// Option keys.
const (
	OptWaitForIt   = "waitforit"
	OptWhenActive  = "whenactive"
	OptWhenVisible = "whenvisible"
	OptWhenIconic  = "wheniconic"
	OptMaxWait     = "maxwait"
	OptMaximize    = "maximize"
	OptRestore     = "restore"
	OptLeftClick   = "leftclick"
	OptRightClick  = "rightclick"
)

// LocalName is the name of the endpoint every manager starts with.
const LocalName = "local"

// Endpoint executes automation verbs.
type Endpoint interface {
	Name() string

	// Execute starts cmdline without waiting for it and returns its pid, or -1.
	Execute(ctx context.Context, opts Options, cmdline []string) int
	KillPID(ctx context.Context, opts Options, pid int) bool
	// KillApp terminates every process whose name is exactly name.
	KillApp(ctx context.Context, opts Options, name string) bool
	// CloseWindow closes the window titled title, or the foreground window
	// when title is empty.
	CloseWindow(ctx context.Context, opts Options, title string) bool
	Focus(ctx context.Context, opts Options, title string) bool
	SendKeys(ctx context.Context, opts Options, keys string) bool
	MouseMove(ctx context.Context, opts Options, x, y int) bool
}

// Options holds per-call named flags and numbers. Missing keys read as
// false or zero.
type Options map[string]any

// Bool reports whether key is set to a truthy value.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case nil:
		return false
	default:
		return o.Float(key) != 0
	}
}

// Float returns key as a number.
func (o Options) Float(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint64:
		return float64(v)
	case uint:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Int returns key truncated to an integer.
func (o Options) Int(key string) int {
	f := o.Float(key)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// Duration reads key as a number of seconds.
func (o Options) Duration(key string) time.Duration {
	f := o.Float(key)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

// Clone returns a shallow copy that is never nil.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
