package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownMethod is returned for verbs outside the supported set.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrBadArguments is returned when arguments do not fit the verb.
	ErrBadArguments = errors.New("bad arguments")
)

// Methods lists every verb in a stable order.
var Methods = []string{
	MethodExecute,
	MethodDelay,
	MethodKillApp,
	MethodKillPID,
	MethodCloseWindow,
	MethodSendKeys,
	MethodFocus,
	MethodMouseMove,
}

// IsMethod reports whether method names a known verb.
func IsMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// NormalizeMethod lower-cases and trims a verb name.
func NormalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

// Call is a verb with its arguments decoded into the shape the verb takes.
type Call struct {
	Method  string
	Cmdline []string
	Target  string
	PID     int
	X, Y    int
	Delay   time.Duration
}

// ParseCall decodes loosely typed arguments (as found in YAML or JSON) for
// method. Only the arguments a verb uses are inspected.
func ParseCall(method string, args []any) (Call, error) {
	method = NormalizeMethod(method)
	c := Call{Method: method}

	switch method {
	case MethodExecute:
		if len(args) == 0 {
			return c, fmt.Errorf("%w: %s needs a command line", ErrBadArguments, method)
		}
		c.Cmdline = make([]string, 0, len(args))
		for i, a := range args {
			s, ok := toString(a)
			if !ok {
				return c, fmt.Errorf("%w: %s argument %d is not a string", ErrBadArguments, method, i)
			}
			c.Cmdline = append(c.Cmdline, s)
		}
	case MethodDelay:
		if len(args) == 0 {
			return c, fmt.Errorf("%w: %s needs a number of seconds", ErrBadArguments, method)
		}
		secs, ok := toFloat(args[0])
		if !ok || secs < 0 {
			return c, fmt.Errorf("%w: %s needs a non-negative number of seconds", ErrBadArguments, method)
		}
		c.Delay = time.Duration(secs * float64(time.Second))
	case MethodKillApp, MethodSendKeys, MethodFocus:
		if len(args) == 0 {
			return c, fmt.Errorf("%w: %s needs one argument", ErrBadArguments, method)
		}
		s, ok := toString(args[0])
		if !ok || s == "" {
			return c, fmt.Errorf("%w: %s needs a non-empty string", ErrBadArguments, method)
		}
		c.Target = s
	case MethodCloseWindow:
		// no argument (or null) closes the foreground window
		if len(args) > 0 && args[0] != nil {
			s, ok := toString(args[0])
			if !ok {
				return c, fmt.Errorf("%w: %s needs a window title", ErrBadArguments, method)
			}
			c.Target = s
		}
	case MethodKillPID:
		if len(args) == 0 {
			return c, fmt.Errorf("%w: %s needs a pid", ErrBadArguments, method)
		}
		pid, ok := toInt(args[0])
		if !ok {
			return c, fmt.Errorf("%w: %s needs an integer pid", ErrBadArguments, method)
		}
		c.PID = pid
	case MethodMouseMove:
		if len(args) < 2 {
			return c, fmt.Errorf("%w: %s needs x and y", ErrBadArguments, method)
		}
		x, okX := toInt(args[0])
		y, okY := toInt(args[1])
		if !okX || !okY {
			return c, fmt.Errorf("%w: %s needs integer coordinates", ErrBadArguments, method)
		}
		c.X, c.Y = x, y
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return c, nil
}

// Invoke runs the call on ep. Execute yields the pid (-1 on failure), every
// other verb a bool. Delay is not an endpoint verb and yields false.
func (c Call) Invoke(ctx context.Context, ep Endpoint, opts Options) any {
	switch c.Method {
	case MethodExecute:
		return ep.Execute(ctx, opts, c.Cmdline)
	case MethodKillApp:
		return ep.KillApp(ctx, opts, c.Target)
	case MethodKillPID:
		return ep.KillPID(ctx, opts, c.PID)
	case MethodCloseWindow:
		return ep.CloseWindow(ctx, opts, c.Target)
	case MethodSendKeys:
		return ep.SendKeys(ctx, opts, c.Target)
	case MethodFocus:
		return ep.Focus(ctx, opts, c.Target)
	case MethodMouseMove:
		return ep.MouseMove(ctx, opts, c.X, c.Y)
	}
	return false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
