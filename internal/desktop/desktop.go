// Package desktop is the window and input capability surface used by the
// local endpoint. Backends wrap whatever the host window system offers; the
// rest of the daemon only sees the Desktop interface.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrUnsupported is returned by every call on a host without a usable backend.
var ErrUnsupported = errors.New("desktop automation is not supported on this host")

// Window identifies a top-level window. Zero means "no window".
type Window uint64

// ShowMode selects how a window is shown after activation.
type ShowMode int

const (
	// ShowNormal maps the window without changing its size.
	ShowNormal ShowMode = iota
	// ShowMaximized maximizes the window.
	ShowMaximized
	// ShowRestore returns a maximized or minimized window to its normal size.
	ShowRestore
)

// Button is a mouse button.
type Button int

const (
	ButtonLeft  Button = 1
	ButtonRight Button = 3
)

// Desktop abstracts the window-system primitives the daemon needs.
type Desktop interface {
	// Name returns the backend name (e.g. "xdotool").
	Name() string

	// FindWindow returns the window whose title matches exactly, or 0 when
	// there is none.
	FindWindow(ctx context.Context, title string) (Window, error)

	// ForegroundWindow returns the window that currently has input focus.
	ForegroundWindow(ctx context.Context) (Window, error)

	IsVisible(ctx context.Context, w Window) (bool, error)
	IsIconic(ctx context.Context, w Window) (bool, error)

	// Close asks the window to close. It does not wait for it to go away.
	Close(ctx context.Context, w Window) error

	// Activate raises the window and gives it input focus.
	Activate(ctx context.Context, w Window) error

	Show(ctx context.Context, w Window, mode ShowMode) error

	// SendKeys injects a key sequence written in SendKeys notation.
	SendKeys(ctx context.Context, keys string) error

	MoveMouse(ctx context.Context, x, y int) error
	Click(ctx context.Context, button Button) error
}

// Detect picks a backend for the current host.
func Detect() (Desktop, error) {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		if os.Getenv("DISPLAY") == "" {
			return Unsupported{}, fmt.Errorf("no X display available (DISPLAY is empty)")
		}
		if _, err := exec.LookPath("xdotool"); err != nil {
			return Unsupported{}, fmt.Errorf("xdotool not found: %w", err)
		}
		return NewXdotool(ExecRunner{}), nil
	default:
		return Unsupported{}, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Unsupported is the backend used when nothing else is available.
type Unsupported struct{}

func (Unsupported) Name() string { return "unsupported" }

func (Unsupported) FindWindow(context.Context, string) (Window, error) { return 0, ErrUnsupported }
func (Unsupported) ForegroundWindow(context.Context) (Window, error)   { return 0, ErrUnsupported }
func (Unsupported) IsVisible(context.Context, Window) (bool, error)    { return false, ErrUnsupported }
func (Unsupported) IsIconic(context.Context, Window) (bool, error)     { return false, ErrUnsupported }
func (Unsupported) Close(context.Context, Window) error                { return ErrUnsupported }
func (Unsupported) Activate(context.Context, Window) error             { return ErrUnsupported }
func (Unsupported) Show(context.Context, Window, ShowMode) error       { return ErrUnsupported }
func (Unsupported) SendKeys(context.Context, string) error             { return ErrUnsupported }
func (Unsupported) MoveMouse(context.Context, int, int) error          { return ErrUnsupported }
func (Unsupported) Click(context.Context, Button) error                { return ErrUnsupported }
