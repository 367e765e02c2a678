// Package service installs window-opener as a systemd user service, so it
// starts with the graphical session it automates.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
)

const unitName = "window-opener.service"

// ErrUnavailable is returned where systemd user services cannot be managed.
var ErrUnavailable = errors.New("systemd user services are not available")

// ServiceStatus represents the status of the user service.
type ServiceStatus struct {
	IsRunning   bool   `json:"is_running"`
	IsEnabled   bool   `json:"is_enabled"`
	IsInstalled bool   `json:"is_installed"`
	ActiveState string `json:"active_state"`
	SubState    string `json:"sub_state"`
}

// ServiceConfig holds what goes into the unit file.
type ServiceConfig struct {
	ExecPath   string
	ConfigPath string
	WorkingDir string
}

const serviceTemplate = `[Unit]
Description=window-opener - desktop automation REST daemon
PartOf=graphical-session.target
After=graphical-session.target

[Service]
Type=simple
WorkingDirectory={{.WorkingDir}}
ExecStart={{.ExecPath}} --config {{.ConfigPath}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=graphical-session.target
`

// Runner runs systemctl.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Manager controls the user unit.
type Manager struct {
	unitDir string
	run     Runner
}

// NewManager manages units in unitDir through run. An empty unitDir means
// the user's systemd directory; a nil run means the real systemctl.
func NewManager(unitDir string, run Runner) (*Manager, error) {
	if unitDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		unitDir = filepath.Join(base, "systemd", "user")
	}
	if run == nil {
		run = execRunner{}
	}
	return &Manager{unitDir: unitDir, run: run}, nil
}

// Available reports whether systemctl can be used here.
func Available() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	_, err := exec.LookPath("systemctl")
	return err == nil
}

func (m *Manager) unitPath() string { return filepath.Join(m.unitDir, unitName) }

// GenerateServiceFile renders the unit file.
func GenerateServiceFile(cfg ServiceConfig) (string, error) {
	tmpl, err := template.New("service").Parse(serviceTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse service template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("failed to execute service template: %w", err)
	}

	return buf.String(), nil
}

// Install writes the unit, then enables and starts it.
func (m *Manager) Install(ctx context.Context, cfg ServiceConfig) error {
	content, err := GenerateServiceFile(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("failed to create unit directory: %w", err)
	}
	if err := os.WriteFile(m.unitPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	if err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	if err := m.systemctl(ctx, "enable", "--now", unitName); err != nil {
		return fmt.Errorf("failed to enable service: %w", err)
	}
	return nil
}

// Uninstall stops, disables and removes the unit.
func (m *Manager) Uninstall(ctx context.Context) error {
	// not running or not enabled is fine
	_ = m.systemctl(ctx, "disable", "--now", unitName)

	if err := os.Remove(m.unitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}

	if err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}

// Status reports on the unit.
func (m *Manager) Status(ctx context.Context) (*ServiceStatus, error) {
	status := &ServiceStatus{}

	if _, err := os.Stat(m.unitPath()); err == nil {
		status.IsInstalled = true
	}

	out, err := m.run.Run(ctx, "systemctl", "--user", "show", unitName, "--property=ActiveState,SubState,UnitFileState")
	if err != nil {
		return status, err
	}
	props := parseProperties(out)
	status.ActiveState = props["ActiveState"]
	status.SubState = props["SubState"]
	status.IsRunning = status.ActiveState == "active"
	status.IsEnabled = props["UnitFileState"] == "enabled"

	return status, nil
}

// Restart restarts the unit.
func (m *Manager) Restart(ctx context.Context) error {
	return m.systemctl(ctx, "restart", unitName)
}

// IsRunningAsService checks if the current process was started by systemd.
func IsRunningAsService() bool {
	return os.Getenv("INVOCATION_ID") != ""
}

// GetDefaultConfig returns a unit config for the running binary and the
// given settings file.
func GetDefaultConfig(configPath string) ServiceConfig {
	execPath, _ := os.Executable()
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}

	return ServiceConfig{
		ExecPath:   execPath,
		ConfigPath: configPath,
		WorkingDir: filepath.Dir(configPath),
	}
}

func (m *Manager) systemctl(ctx context.Context, args ...string) error {
	_, err := m.run.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
	return err
}

func parseProperties(out []byte) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			props[k] = v
		}
	}
	return props
}
