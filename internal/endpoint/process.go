package endpoint

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNoSuchProcess is returned when a pid does not refer to a live process.
var ErrNoSuchProcess = errors.New("no such process")

// ProcessControl is the process half of the local capability surface.
type ProcessControl interface {
	// Spawn starts argv in the background and returns its pid.
	Spawn(ctx context.Context, argv []string) (int, error)
	// Terminate signals pid to exit. It returns ErrNoSuchProcess when pid is gone.
	Terminate(ctx context.Context, pid int) error
	// FindByName returns the pids of every inspectable process named exactly
	// name, plus how many processes could not be inspected.
	FindByName(ctx context.Context, name string) (pids []int, skipped int, err error)
}

// SystemProcesses controls real processes through os/exec and gopsutil.
type SystemProcesses struct{}

func (SystemProcesses) Spawn(_ context.Context, argv []string) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return -1, errors.New("empty command line")
	}
	// not bound to the request context: the process outlives the call
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return -1, err
	}
	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
	}()
	return pid, nil
}

func (SystemProcesses) Terminate(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return ErrNoSuchProcess
		}
		return fmt.Errorf("inspect pid %d: %w", pid, err)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminate pid %d: %w", pid, err)
	}
	return nil
}

func (SystemProcesses) FindByName(ctx context.Context, name string) ([]int, int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list processes: %w", err)
	}
	var pids []int
	skipped := 0
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			skipped++
			continue
		}
		if pname == name {
			pids = append(pids, int(p.Pid))
		}
	}
	return pids, skipped, nil
}
