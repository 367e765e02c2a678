package program

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
)

// recorder is an Endpoint that logs every call into a shared journal.
type recorder struct {
	name    string
	journal *journal
	nextPID int
	failPID bool
	result  bool
}

type journal struct {
	mu    sync.Mutex
	lines []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.lines...)
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = nil
}

func newRecorder(name string, j *journal) *recorder {
	return &recorder{name: name, journal: j, nextPID: 100, result: true}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Execute(_ context.Context, _ endpoint.Options, cmdline []string) int {
	r.journal.add("%s execute %s", r.name, strings.Join(cmdline, " "))
	if r.failPID {
		return -1
	}
	r.nextPID++
	return r.nextPID
}

func (r *recorder) KillPID(_ context.Context, _ endpoint.Options, pid int) bool {
	r.journal.add("%s kill pid %d", r.name, pid)
	return r.result
}

func (r *recorder) KillApp(_ context.Context, _ endpoint.Options, name string) bool {
	r.journal.add("%s kill app %s", r.name, name)
	return r.result
}

func (r *recorder) CloseWindow(_ context.Context, _ endpoint.Options, title string) bool {
	r.journal.add("%s close window %s", r.name, title)
	return r.result
}

func (r *recorder) Focus(_ context.Context, _ endpoint.Options, title string) bool {
	r.journal.add("%s focus %s", r.name, title)
	return r.result
}

func (r *recorder) SendKeys(_ context.Context, _ endpoint.Options, keys string) bool {
	r.journal.add("%s sendkeys %s", r.name, keys)
	return r.result
}

func (r *recorder) MouseMove(_ context.Context, _ endpoint.Options, x, y int) bool {
	r.journal.add("%s mouse move %d %d", r.name, x, y)
	return r.result
}
