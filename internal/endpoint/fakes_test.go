package endpoint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pandeptwidyaop/window-opener/internal/desktop"
)

// fakeClock advances instantly whenever After is called.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type fakeProcesses struct {
	spawned    [][]string
	spawnErr   error
	nextPID    int
	terminated []int
	alive      map[int]bool
	byName     map[string][]int
	skipped    int
}

func (p *fakeProcesses) Spawn(_ context.Context, argv []string) (int, error) {
	if p.spawnErr != nil {
		return -1, p.spawnErr
	}
	p.spawned = append(p.spawned, argv)
	p.nextPID++
	if p.alive == nil {
		p.alive = map[int]bool{}
	}
	p.alive[p.nextPID] = true
	return p.nextPID, nil
}

func (p *fakeProcesses) Terminate(_ context.Context, pid int) error {
	if !p.alive[pid] {
		return ErrNoSuchProcess
	}
	p.terminated = append(p.terminated, pid)
	delete(p.alive, pid)
	return nil
}

func (p *fakeProcesses) FindByName(_ context.Context, name string) ([]int, int, error) {
	return p.byName[name], p.skipped, nil
}

// fakeDesktop is a scriptable window system. appearAfter makes a window show
// up only after FindWindow has been called that many times.
type fakeDesktop struct {
	windows     map[string]desktop.Window
	appearAfter map[string]int
	finds       map[string]int
	foreground  desktop.Window
	visible     map[desktop.Window]bool
	iconic      map[desktop.Window]bool
	activateErr error
	calls       []string
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		windows:     map[string]desktop.Window{},
		appearAfter: map[string]int{},
		finds:       map[string]int{},
		visible:     map[desktop.Window]bool{},
		iconic:      map[desktop.Window]bool{},
	}
}

func (d *fakeDesktop) Name() string { return "fake" }

func (d *fakeDesktop) FindWindow(_ context.Context, title string) (desktop.Window, error) {
	d.finds[title]++
	if d.finds[title] <= d.appearAfter[title] {
		return 0, nil
	}
	return d.windows[title], nil
}

func (d *fakeDesktop) ForegroundWindow(context.Context) (desktop.Window, error) {
	return d.foreground, nil
}

func (d *fakeDesktop) IsVisible(_ context.Context, w desktop.Window) (bool, error) {
	return d.visible[w], nil
}

func (d *fakeDesktop) IsIconic(_ context.Context, w desktop.Window) (bool, error) {
	return d.iconic[w], nil
}

func (d *fakeDesktop) Close(_ context.Context, w desktop.Window) error {
	d.calls = append(d.calls, fmt.Sprintf("close %d", w))
	return nil
}

func (d *fakeDesktop) Activate(_ context.Context, w desktop.Window) error {
	d.calls = append(d.calls, fmt.Sprintf("activate %d", w))
	return d.activateErr
}

func (d *fakeDesktop) Show(_ context.Context, w desktop.Window, mode desktop.ShowMode) error {
	d.calls = append(d.calls, fmt.Sprintf("show %d %d", w, mode))
	return nil
}

func (d *fakeDesktop) SendKeys(_ context.Context, keys string) error {
	d.calls = append(d.calls, "keys "+keys)
	return nil
}

func (d *fakeDesktop) MoveMouse(_ context.Context, x, y int) error {
	d.calls = append(d.calls, fmt.Sprintf("move %d %d", x, y))
	return nil
}

func (d *fakeDesktop) Click(_ context.Context, b desktop.Button) error {
	d.calls = append(d.calls, fmt.Sprintf("click %d", b))
	return nil
}
