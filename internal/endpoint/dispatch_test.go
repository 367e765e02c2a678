package endpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCall(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   []any
		want   Call
	}{
		{"execute", "Execute", []any{"notepad.exe", 3}, Call{Method: MethodExecute, Cmdline: []string{"notepad.exe", "3"}}},
		{"delay float", "delay", []any{1.5}, Call{Method: MethodDelay, Delay: 1500 * time.Millisecond}},
		{"delay string", "delay", []any{"2"}, Call{Method: MethodDelay, Delay: 2 * time.Second}},
		{"kill app", "kill app", []any{"calc.exe"}, Call{Method: MethodKillApp, Target: "calc.exe"}},
		{"kill pid", "kill pid", []any{float64(99)}, Call{Method: MethodKillPID, PID: 99}},
		{"close named", "close window", []any{"Notepad"}, Call{Method: MethodCloseWindow, Target: "Notepad"}},
		{"close foreground", "close window", nil, Call{Method: MethodCloseWindow}},
		{"close null", "close window", []any{nil}, Call{Method: MethodCloseWindow}},
		{"mouse", " Mouse Move ", []any{10, "20"}, Call{Method: MethodMouseMove, X: 10, Y: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCall(tt.method, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCall_Errors(t *testing.T) {
	tests := []struct {
		method string
		args   []any
	}{
		{"execute", nil},
		{"execute", []any{map[string]any{}}},
		{"delay", nil},
		{"delay", []any{-1}},
		{"delay", []any{"soon"}},
		{"kill app", nil},
		{"focus", []any{""}},
		{"kill pid", []any{1.5}},
		{"mouse move", []any{1}},
		{"mouse move", []any{"a", "b"}},
	}
	for _, tt := range tests {
		_, err := ParseCall(tt.method, tt.args)
		assert.ErrorIs(t, err, ErrBadArguments, "%s %v", tt.method, tt.args)
	}

	_, err := ParseCall("explode", nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestCall_Invoke(t *testing.T) {
	desk := newFakeDesktop()
	desk.windows["Editor"] = 2
	procs := &fakeProcesses{nextPID: 9}
	l, _ := newTestLocal(desk, procs)
	ctx := context.Background()

	call, err := ParseCall(MethodExecute, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 10, call.Invoke(ctx, l, nil))

	call, err = ParseCall(MethodFocus, []any{"Editor"})
	require.NoError(t, err)
	assert.Equal(t, true, call.Invoke(ctx, l, nil))

	call, err = ParseCall(MethodDelay, []any{0})
	require.NoError(t, err)
	assert.Equal(t, false, call.Invoke(ctx, l, nil))
}

func TestIsMethod(t *testing.T) {
	assert.True(t, IsMethod("kill pid"))
	assert.False(t, IsMethod("kill_pid"))
	assert.Equal(t, "close window", NormalizeMethod("  Close Window"))
}
