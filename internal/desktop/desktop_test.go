package desktop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, call)
	if err, ok := r.errs[call]; ok {
		return nil, err
	}
	return []byte(r.outputs[call]), nil
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want []Stroke
	}{
		{"plain text", "hello", []Stroke{{Text: "hello"}}},
		{"enter", "abc{ENTER}", []Stroke{{Text: "abc"}, {Chord: "Return"}}},
		{"tilde is enter", "x~", []Stroke{{Text: "x"}, {Chord: "Return"}}},
		{"alt f4", "%{F4}", []Stroke{{Chord: "alt+F4"}}},
		{"ctrl s", "^s", []Stroke{{Chord: "ctrl+s"}}},
		{"stacked modifiers", "^+{ESC}", []Stroke{{Chord: "ctrl+shift+Escape"}}},
		{"escaped plus", "1{+}1", []Stroke{{Text: "1+1"}}},
		{"escaped brace", "{}}", []Stroke{{Text: "}"}}},
		{"repeat named", "{TAB 2}", []Stroke{{Chord: "Tab"}, {Chord: "Tab"}}},
		{"repeat char", "{a 3}", []Stroke{{Text: "aaa"}}},
		{"lowercase named", "{enter}", []Stroke{{Chord: "Return"}}},
		{"modifier on escaped char", "^{+}", []Stroke{{Chord: "ctrl+plus"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeys(tt.keys)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeys_Errors(t *testing.T) {
	for _, keys := range []string{"{ENTER", "{}", "{NOPE}", "^", "(ab)", "{TAB x}"} {
		_, err := ParseKeys(keys)
		assert.ErrorIs(t, err, ErrBadKeys, keys)
	}
}

func TestXdotool_FindWindow(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		`xdotool search --name ^Untitled - Notepad$`: "41943047\n41943050\n",
	}}
	x := NewXdotool(run)

	w, err := x.FindWindow(context.Background(), "Untitled - Notepad")
	require.NoError(t, err)
	assert.Equal(t, Window(41943047), w)
}

func TestXdotool_FindWindowQuotesTitle(t *testing.T) {
	run := &fakeRunner{}
	x := NewXdotool(run)

	w, err := x.FindWindow(context.Background(), "a.b (c)")
	require.NoError(t, err)
	assert.Equal(t, Window(0), w)
	assert.Equal(t, []string{`xdotool search --name ^a\.b \(c\)$`}, run.calls)
}

func TestXdotool_WindowState(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		"xwininfo -id 0x10":            "  Map State: IsViewable\n",
		"xprop -id 0x10 _NET_WM_STATE": "_NET_WM_STATE(ATOM) = _NET_WM_STATE_HIDDEN\n",
		"xwininfo -id 0x20":            "  Map State: IsUnMapped\n",
		"xprop -id 0x20 _NET_WM_STATE": "_NET_WM_STATE(ATOM) = \n",
		"xdotool getactivewindow":      "16\n",
	}}
	x := NewXdotool(run)
	ctx := context.Background()

	visible, err := x.IsVisible(ctx, 16)
	require.NoError(t, err)
	assert.True(t, visible)

	iconic, err := x.IsIconic(ctx, 16)
	require.NoError(t, err)
	assert.True(t, iconic)

	visible, _ = x.IsVisible(ctx, 32)
	assert.False(t, visible)
	iconic, _ = x.IsIconic(ctx, 32)
	assert.False(t, iconic)

	fg, err := x.ForegroundWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, Window(16), fg)
}

func TestXdotool_SendKeysAndMouse(t *testing.T) {
	run := &fakeRunner{}
	x := NewXdotool(run)
	ctx := context.Background()

	require.NoError(t, x.SendKeys(ctx, "hi{ENTER}"))
	require.NoError(t, x.MoveMouse(ctx, 100, 200))
	require.NoError(t, x.Click(ctx, ButtonRight))
	require.NoError(t, x.Show(ctx, 16, ShowMaximized))
	require.NoError(t, x.Close(ctx, 16))

	assert.Equal(t, []string{
		"xdotool type -- hi",
		"xdotool key -- Return",
		"xdotool mousemove 100 200",
		"xdotool click 3",
		"wmctrl -i -r 0x10 -b add,maximized_vert,maximized_horz",
		"wmctrl -i -c 0x10",
	}, run.calls)
}

func TestXdotool_RunnerErrors(t *testing.T) {
	boom := errors.New("boom")
	run := &fakeRunner{errs: map[string]error{"wmctrl -i -c 0x10": boom}}
	x := NewXdotool(run)

	err := x.Close(context.Background(), 16)
	assert.ErrorIs(t, err, boom)
}

func TestUnsupported(t *testing.T) {
	var d Desktop = Unsupported{}
	_, err := d.FindWindow(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, d.SendKeys(context.Background(), "x"), ErrUnsupported)
	assert.Equal(t, "unsupported", d.Name())
}
