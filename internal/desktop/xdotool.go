package desktop

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Xdotool drives an X11 session through xdotool, xwininfo, xprop and wmctrl.
type Xdotool struct {
	run Runner
}

// NewXdotool returns an X11 backend using the given runner.
func NewXdotool(run Runner) *Xdotool {
	return &Xdotool{run: run}
}

func (x *Xdotool) Name() string { return "xdotool" }

func (x *Xdotool) FindWindow(ctx context.Context, title string) (Window, error) {
	out, err := x.run.Run(ctx, "xdotool", "search", "--name", "^"+regexp.QuoteMeta(title)+"$")
	if err != nil {
		// xdotool exits 1 when the search matches nothing
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return 0, nil
		}
		return 0, fmt.Errorf("xdotool search: %w", err)
	}
	return firstWindow(out)
}

func (x *Xdotool) ForegroundWindow(ctx context.Context) (Window, error) {
	out, err := x.run.Run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return 0, fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	return firstWindow(out)
}

func (x *Xdotool) IsVisible(ctx context.Context, w Window) (bool, error) {
	out, err := x.run.Run(ctx, "xwininfo", "-id", w.hex())
	if err != nil {
		return false, fmt.Errorf("xwininfo: %w", err)
	}
	return bytes.Contains(out, []byte("Map State: IsViewable")), nil
}

func (x *Xdotool) IsIconic(ctx context.Context, w Window) (bool, error) {
	out, err := x.run.Run(ctx, "xprop", "-id", w.hex(), "_NET_WM_STATE")
	if err != nil {
		return false, fmt.Errorf("xprop: %w", err)
	}
	return bytes.Contains(out, []byte("_NET_WM_STATE_HIDDEN")), nil
}

func (x *Xdotool) Close(ctx context.Context, w Window) error {
	if _, err := x.run.Run(ctx, "wmctrl", "-i", "-c", w.hex()); err != nil {
		return fmt.Errorf("wmctrl close: %w", err)
	}
	return nil
}

func (x *Xdotool) Activate(ctx context.Context, w Window) error {
	if _, err := x.run.Run(ctx, "xdotool", "windowactivate", w.dec()); err != nil {
		return fmt.Errorf("xdotool windowactivate: %w", err)
	}
	return nil
}

func (x *Xdotool) Show(ctx context.Context, w Window, mode ShowMode) error {
	var args []string
	switch mode {
	case ShowMaximized:
		args = []string{"wmctrl", "-i", "-r", w.hex(), "-b", "add,maximized_vert,maximized_horz"}
	case ShowRestore:
		args = []string{"wmctrl", "-i", "-r", w.hex(), "-b", "remove,maximized_vert,maximized_horz,hidden"}
	default:
		args = []string{"xdotool", "windowmap", w.dec()}
	}
	if _, err := x.run.Run(ctx, args[0], args[1:]...); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func (x *Xdotool) SendKeys(ctx context.Context, keys string) error {
	strokes, err := ParseKeys(keys)
	if err != nil {
		return err
	}
	for _, s := range strokes {
		if s.Text != "" {
			_, err = x.run.Run(ctx, "xdotool", "type", "--", s.Text)
		} else {
			_, err = x.run.Run(ctx, "xdotool", "key", "--", s.Chord)
		}
		if err != nil {
			return fmt.Errorf("xdotool: %w", err)
		}
	}
	return nil
}

func (x *Xdotool) MoveMouse(ctx context.Context, px, py int) error {
	if _, err := x.run.Run(ctx, "xdotool", "mousemove", strconv.Itoa(px), strconv.Itoa(py)); err != nil {
		return fmt.Errorf("xdotool mousemove: %w", err)
	}
	return nil
}

func (x *Xdotool) Click(ctx context.Context, button Button) error {
	if _, err := x.run.Run(ctx, "xdotool", "click", strconv.Itoa(int(button))); err != nil {
		return fmt.Errorf("xdotool click: %w", err)
	}
	return nil
}

func (w Window) hex() string { return "0x" + strconv.FormatUint(uint64(w), 16) }
func (w Window) dec() string { return strconv.FormatUint(uint64(w), 10) }

func firstWindow(out []byte) (Window, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected window id %q: %w", line, err)
		}
		return Window(id), nil
	}
	return 0, nil
}
