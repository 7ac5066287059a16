package viewer

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nvandessel/desirepath/internal/goals"
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/obstacle"
	"github.com/nvandessel/desirepath/internal/terrain"
	"github.com/nvandessel/desirepath/internal/world"
)

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.Width, cfg.Height = 5, 5

	trees, err := obstacle.FromCells(5, 5, []grid.Point{grid.Pt(2, 0)})
	if err != nil {
		t.Fatalf("FromCells: %v", err)
	}
	w, err := world.NewFromLayout(cfg, world.Layout{
		Terrain:   terrain.Flat(5, 5, 0.5),
		Obstacles: trees,
		Goals:     goals.FromPoints(grid.Pt(4, 4)),
		Starts:    []grid.Point{grid.Pt(0, 0)},
	}, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("NewFromLayout: %v", err)
	}
	return w
}

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	screen.SetSize(120, 10)
	t.Cleanup(screen.Fini)
	return screen
}

func runeAt(cells []tcell.SimCell, width, x, y int) rune {
	c := cells[y*width+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func TestDraw(t *testing.T) {
	screen := newTestScreen(t)
	v := New(screen, newTestWorld(t))
	v.Draw()

	cells, width, _ := screen.GetContents()
	tests := []struct {
		x, y int
		want rune
	}{
		{0, 0, '@'},
		{2, 0, '#'},
		{4, 4, 'G'},
		{1, 1, ' '},
	}
	for _, tt := range tests {
		if got := runeAt(cells, width, tt.x, tt.y); got != tt.want {
			t.Errorf("cell (%d,%d) = %q, want %q", tt.x, tt.y, got, tt.want)
		}
	}

	var status strings.Builder
	for x := 0; x < width; x++ {
		status.WriteRune(runeAt(cells, width, x, 5))
	}
	if !strings.HasPrefix(status.String(), "tick 0  mean 0.0000  walkers 1  running") {
		t.Errorf("status line = %q", strings.TrimSpace(status.String()))
	}
}

func TestHandleKey(t *testing.T) {
	screen := newTestScreen(t)
	w := newTestWorld(t)
	v := New(screen, w, WithInterval(100*time.Millisecond))

	if !v.handleKey(tcell.KeyRune, ' ') || !v.Paused() {
		t.Fatal("space should pause and keep running")
	}
	v.handleKey(tcell.KeyRune, 'n')
	if w.Tick() != 1 {
		t.Errorf("n should step while paused, tick = %d", w.Tick())
	}
	v.handleKey(tcell.KeyRune, ' ')
	if v.Paused() {
		t.Error("second space should resume")
	}

	v.handleKey(tcell.KeyRune, '+')
	if v.Interval() != 50*time.Millisecond {
		t.Errorf("+ interval = %v, want 50ms", v.Interval())
	}
	v.handleKey(tcell.KeyRune, '-')
	v.handleKey(tcell.KeyRune, '-')
	if v.Interval() != 200*time.Millisecond {
		t.Errorf("- interval = %v, want 200ms", v.Interval())
	}

	for _, k := range []struct {
		key tcell.Key
		r   rune
	}{
		{tcell.KeyRune, 'q'},
		{tcell.KeyEscape, 0},
		{tcell.KeyCtrlC, 0},
	} {
		if v.handleKey(k.key, k.r) {
			t.Errorf("key %v %q should quit", k.key, k.r)
		}
	}
}

func TestIntervalClamped(t *testing.T) {
	screen := newTestScreen(t)
	v := New(screen, newTestWorld(t), WithInterval(time.Nanosecond))
	if v.Interval() != MinInterval {
		t.Errorf("interval = %v, want %v", v.Interval(), MinInterval)
	}
	for i := 0; i < 20; i++ {
		v.handleKey(tcell.KeyRune, '-')
	}
	if v.Interval() != MaxInterval {
		t.Errorf("interval = %v, want %v", v.Interval(), MaxInterval)
	}
}

func TestRunStopsAtTickLimit(t *testing.T) {
	screen := newTestScreen(t)
	w := newTestWorld(t)
	var seen []int
	v := New(screen, w,
		WithInterval(MinInterval),
		WithTickLimit(3),
		WithOnTick(func(s world.TickStats) { seen = append(seen, s.Tick) }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w.Tick() != 3 {
		t.Errorf("tick = %d, want 3", w.Tick())
	}
	if len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Errorf("OnTick saw %v, want [0 1 2]", seen)
	}
}

func TestRunPausedStopsOnCancel(t *testing.T) {
	screen := newTestScreen(t)
	w := newTestWorld(t)
	v := New(screen, w, WithInterval(MinInterval), WithPaused(true))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w.Tick() != 0 {
		t.Errorf("paused viewer advanced to tick %d", w.Tick())
	}
}

func TestGroundColor(t *testing.T) {
	bare := groundColor(0.5, 1)
	r, g, b := bare.RGB()
	if r != 150 || g != 110 || b != 60 {
		t.Errorf("full trail colour = (%d,%d,%d), want (150,110,60)", r, g, b)
	}
	if groundColor(0, 0) == groundColor(1, 0) {
		t.Error("elevation should change the shade")
	}
}
