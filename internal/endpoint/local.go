package endpoint

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/desktop"
)

// Local runs verbs on this machine.
type Local struct {
	name           string
	procs          ProcessControl
	desk           desktop.Desktop
	clock          Clock
	pollInterval   time.Duration
	defaultMaxWait time.Duration
	logger         *zap.Logger
}

// LocalOption customizes a Local endpoint.
type LocalOption func(*Local)

// WithProcesses replaces the process controller.
func WithProcesses(p ProcessControl) LocalOption {
	return func(l *Local) { l.procs = p }
}

// WithClock replaces the clock used by wait loops.
func WithClock(c Clock) LocalOption {
	return func(l *Local) { l.clock = c }
}

// WithPollInterval sets how often wait conditions are checked.
func WithPollInterval(d time.Duration) LocalOption {
	return func(l *Local) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithDefaultMaxWait bounds waits whose options give no maxwait. Zero keeps
// them unbounded.
func WithDefaultMaxWait(d time.Duration) LocalOption {
	return func(l *Local) { l.defaultMaxWait = d }
}

// NewLocal returns a local endpoint driving desk.
func NewLocal(name string, desk desktop.Desktop, logger *zap.Logger, opts ...LocalOption) *Local {
	if desk == nil {
		desk = desktop.Unsupported{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Local{
		name:         name,
		procs:        SystemProcesses{},
		desk:         desk,
		clock:        SystemClock{},
		pollInterval: DefaultPollInterval,
		logger:       logger.With(zap.String("endpoint", name)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Name() string { return l.name }

func (l *Local) Execute(ctx context.Context, _ Options, cmdline []string) int {
	argv, err := commandLine(cmdline)
	if err != nil {
		l.logger.Error("Failed to parse command line", zap.Strings("cmdline", cmdline), zap.Error(err))
		return -1
	}
	l.logger.Debug("Starting process", zap.Strings("argv", argv))
	pid, err := l.procs.Spawn(ctx, argv)
	if err != nil {
		l.logger.Error("Failed to launch process", zap.Strings("argv", argv), zap.Error(err))
		return -1
	}
	l.logger.Debug("Process started", zap.Int("pid", pid))
	return pid
}

func (l *Local) KillPID(ctx context.Context, _ Options, pid int) bool {
	if pid <= 0 {
		return false
	}
	l.logger.Debug("Killing process", zap.Int("pid", pid))
	if err := l.procs.Terminate(ctx, pid); err != nil {
		if errors.Is(err, ErrNoSuchProcess) {
			l.logger.Warn("PID does not exist", zap.Int("pid", pid))
		} else {
			l.logger.Error("Failed to kill process", zap.Int("pid", pid), zap.Error(err))
		}
		return false
	}
	return true
}

func (l *Local) KillApp(ctx context.Context, opts Options, name string) bool {
	l.logger.Debug("kill_app", zap.String("app", name))
	pids, skipped, err := l.procs.FindByName(ctx, name)
	if err != nil {
		l.logger.Error("Failed to enumerate processes", zap.Error(err))
		return false
	}
	if skipped > 0 {
		l.logger.Debug("Skipped processes that could not be inspected", zap.Int("count", skipped))
	}
	killed := false
	for _, pid := range pids {
		l.logger.Debug("Found matching process, killing it", zap.String("app", name), zap.Int("pid", pid))
		if l.KillPID(ctx, opts, pid) {
			killed = true
		}
	}
	return killed
}

func (l *Local) CloseWindow(ctx context.Context, opts Options, title string) bool {
	l.logger.Debug("close_window", zap.String("window", title))

	var w desktop.Window
	if title != "" {
		w = l.resolveWindow(ctx, opts, title, true)
	} else {
		fg, err := l.desk.ForegroundWindow(ctx)
		if err != nil {
			l.logger.Error("Failed to get foreground window", zap.Error(err))
			return false
		}
		w = fg
	}

	if w == 0 {
		l.logger.Warn("Cannot find window", zap.String("window", title))
		return false
	}
	if err := l.desk.Close(ctx, w); err != nil {
		l.logger.Error("Failed to close window", zap.String("window", title), zap.Error(err))
		return false
	}
	return true
}

func (l *Local) Focus(ctx context.Context, opts Options, title string) bool {
	var w desktop.Window
	if title != "" {
		w = l.resolveWindow(ctx, opts, title, false)
	}
	if w == 0 {
		l.logger.Warn("Cannot find window", zap.String("window", title))
		return false
	}

	if err := l.desk.Show(ctx, w, desktop.ShowNormal); err != nil {
		l.logger.Warn("Failed to show window", zap.String("window", title), zap.Error(err))
	}
	if err := l.desk.Activate(ctx, w); err != nil {
		l.logger.Warn("Failed to activate window", zap.String("window", title), zap.Error(err))
	}

	var err error
	if opts.Bool(OptMaximize) {
		err = l.desk.Show(ctx, w, desktop.ShowMaximized)
	} else if opts.Bool(OptRestore) {
		err = l.desk.Show(ctx, w, desktop.ShowRestore)
	}
	if err != nil {
		l.logger.Warn("Failed to resize window", zap.String("window", title), zap.Error(err))
	}
	return true
}

func (l *Local) SendKeys(ctx context.Context, _ Options, keys string) bool {
	if err := l.desk.SendKeys(ctx, keys); err != nil {
		l.logger.Error("Failed to send keys", zap.Error(err))
	}
	return true
}

func (l *Local) MouseMove(ctx context.Context, opts Options, x, y int) bool {
	if err := l.desk.MoveMouse(ctx, x, y); err != nil {
		l.logger.Error("Failed to move mouse", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
	}
	for i := 0; i < opts.Int(OptLeftClick); i++ {
		if err := l.desk.Click(ctx, desktop.ButtonLeft); err != nil {
			l.logger.Error("Failed to left-click", zap.Error(err))
		}
	}
	for i := 0; i < opts.Int(OptRightClick); i++ {
		if err := l.desk.Click(ctx, desktop.ButtonRight); err != nil {
			l.logger.Error("Failed to right-click", zap.Error(err))
		}
	}
	return true
}

// resolveWindow finds title and applies the configured wait conditions. It
// returns 0 when the window is missing or a condition timed out.
func (l *Local) resolveWindow(ctx context.Context, opts Options, title string, allowActive bool) desktop.Window {
	w, err := l.desk.FindWindow(ctx, title)
	if err != nil {
		l.logger.Error("Failed to look up window", zap.String("window", title), zap.Error(err))
		return 0
	}

	if w == 0 && opts.Bool(OptWaitForIt) {
		l.logger.Info("Waiting for window to appear", zap.String("window", title))
		l.await(ctx, opts, OptWaitForIt, func(ctx context.Context) (bool, error) {
			found, err := l.desk.FindWindow(ctx, title)
			w = found
			return found != 0, err
		})
		if w == 0 {
			l.logger.Info("Timed out waiting for window to appear", zap.String("window", title))
			return 0
		}
	}
	if w == 0 {
		return 0
	}

	if allowActive && opts.Bool(OptWhenActive) {
		l.logger.Info("Waiting for window to become the active window", zap.String("window", title))
		ok := l.await(ctx, opts, OptWhenActive, func(ctx context.Context) (bool, error) {
			fg, err := l.desk.ForegroundWindow(ctx)
			return fg == w, err
		})
		if !ok {
			l.logger.Info("Timed out waiting for window to get focus", zap.String("window", title))
			return 0
		}
	}

	if opts.Bool(OptWhenVisible) {
		l.logger.Info("Waiting for window to become visible", zap.String("window", title))
		ok := l.await(ctx, opts, OptWhenVisible, func(ctx context.Context) (bool, error) {
			return l.desk.IsVisible(ctx, w)
		})
		if !ok {
			l.logger.Info("Timed out waiting for window to become visible", zap.String("window", title))
			return 0
		}
	}

	if opts.Bool(OptWhenIconic) {
		l.logger.Info("Waiting for window to be iconic (minimized)", zap.String("window", title))
		ok := l.await(ctx, opts, OptWhenIconic, func(ctx context.Context) (bool, error) {
			return l.desk.IsIconic(ctx, w)
		})
		if !ok {
			l.logger.Info("Timed out waiting for window to become iconic", zap.String("window", title))
			return 0
		}
	}
	return w
}

func (l *Local) await(ctx context.Context, opts Options, condition string, check func(context.Context) (bool, error)) bool {
	ok, err := Poll(ctx, l.clock, l.pollInterval, l.maxWait(opts, condition), check)
	if err != nil {
		l.logger.Warn("Wait aborted", zap.String("condition", condition), zap.Error(err))
		return false
	}
	return ok
}

// maxWait picks the budget for one wait condition: "maxwait_<condition>",
// then "maxwait", then the endpoint default.
func (l *Local) maxWait(opts Options, condition string) time.Duration {
	if d := opts.Duration(OptMaxWait + "_" + condition); d > 0 {
		return d
	}
	if d := opts.Duration(OptMaxWait); d > 0 {
		return d
	}
	return l.defaultMaxWait
}

// commandLine turns action arguments into argv. A lone argument naming an
// existing program is used as is; otherwise it is split like a shell would.
func commandLine(args []string) ([]string, error) {
	if len(args) != 1 {
		if len(args) == 0 {
			return nil, errors.New("empty command line")
		}
		return args, nil
	}
	cmd := strings.TrimSpace(args[0])
	if cmd == "" {
		return nil, errors.New("empty command line")
	}
	if _, err := os.Stat(cmd); err == nil {
		return []string{cmd}, nil
	}
	if _, err := exec.LookPath(cmd); err == nil {
		return []string{cmd}, nil
	}
	argv, err := shlex.Split(cmd)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command line")
	}
	return argv, nil
}
