// Package viewer is a terminal front end that animates a running world.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/visualization"
	"github.com/nvandessel/desirepath/internal/world"
)

// Interval bounds for the +/- keys.
const (
	MinInterval = 10 * time.Millisecond
	MaxInterval = 2 * time.Second
)

// Source is the simulation the viewer animates. *world.World satisfies it.
type Source interface {
	Step() world.TickStats
	Snapshot() world.Snapshot
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithInterval sets the delay between ticks.
func WithInterval(d time.Duration) Option {
	return func(v *Viewer) { v.interval = clampInterval(d) }
}

// WithPaused starts the viewer paused.
func WithPaused(paused bool) Option {
	return func(v *Viewer) { v.paused = paused }
}

// WithOnTick is called with the statistics of every tick the viewer runs.
func WithOnTick(fn func(world.TickStats)) Option {
	return func(v *Viewer) { v.onTick = fn }
}

// WithTickLimit stops the viewer after n ticks. Zero means no limit.
func WithTickLimit(n int) Option {
	return func(v *Viewer) { v.stop = max(0, n) }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// Viewer draws snapshots onto a tcell screen and steps the source on a
// timer. Keys: q, Esc or Ctrl-C quit; space pauses; n steps once; + and -
// change speed.
type Viewer struct {
	screen   tcell.Screen
	src      Source
	interval time.Duration
	paused   bool
	onTick   func(world.TickStats)
	logger   *slog.Logger

	// stop ends Run after this many ticks; zero runs until quit.
	stop  int
	ticks int
}

// New creates a viewer. The caller owns the screen's Init and Fini.
func New(screen tcell.Screen, src Source, opts ...Option) *Viewer {
	v := &Viewer{
		screen:   screen,
		src:      src,
		interval: 100 * time.Millisecond,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Paused reports whether automatic stepping is suspended.
func (v *Viewer) Paused() bool { return v.paused }

// Interval returns the delay between ticks.
func (v *Viewer) Interval() time.Duration { return v.interval }

// Run draws and steps until the user quits, the tick limit is reached or
// ctx is done. Quitting is not an error.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				before := v.interval
				if !v.handleKey(ev.Key(), ev.Rune()) {
					v.logger.Debug("viewer quit", "ticks", v.ticks)
					return nil
				}
				if v.interval != before {
					ticker.Reset(v.interval)
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
			v.Draw()
		case <-ticker.C:
			if v.paused {
				continue
			}
			v.step()
			v.Draw()
		}
		if v.stop > 0 && v.ticks >= v.stop {
			return nil
		}
	}
}

// handleKey applies one key press and reports whether to keep running.
func (v *Viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return false
		case ' ':
			v.paused = !v.paused
		case 'n', 'N':
			v.step()
		case '+', '=':
			v.interval = clampInterval(v.interval / 2)
		case '-', '_':
			v.interval = clampInterval(v.interval * 2)
		}
	}
	return true
}

func (v *Viewer) step() {
	t := v.src.Step()
	v.ticks++
	if v.onTick != nil {
		v.onTick(t)
	}
}

func clampInterval(d time.Duration) time.Duration {
	return max(MinInterval, min(MaxInterval, d))
}

// Draw renders the current snapshot and a status line below it.
func (v *Viewer) Draw() {
	snap := v.src.Snapshot()
	v.screen.Clear()

	overlay := make(map[grid.Point]rune, len(snap.Goals)+len(snap.Walkers))
	for _, g := range snap.Goals {
		overlay[g.Pos] = visualization.GlyphGoal
	}
	for _, w := range snap.Walkers {
		overlay[w.Pos] = visualization.GlyphWalker
	}

	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			r, style := cell(snap, overlay, grid.Pt(x, y))
			v.screen.SetContent(x, y, r, nil, style)
		}
	}

	v.drawText(0, snap.Height, tcell.StyleDefault, v.status(snap))
	v.screen.Show()
}

func (v *Viewer) status(snap world.Snapshot) string {
	state := "running"
	if v.paused {
		state = "paused"
	}
	return fmt.Sprintf("tick %d  mean %.4f  walkers %d  %s  %v  [q]uit [space] pause [n]ext [+/-] speed",
		snap.Tick, snap.MeanTrail, len(snap.Walkers), state, v.interval)
}

func (v *Viewer) drawText(x, y int, style tcell.Style, s string) {
	for i, r := range []rune(s) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

// cell picks the glyph and colours for p. Walkers sit over goals, goals
// over trees; open ground is shaded by elevation and tinted by trail.
func cell(snap world.Snapshot, overlay map[grid.Point]rune, p grid.Point) (rune, tcell.Style) {
	bg := groundColor(snap.Elevation[p.Y][p.X], snap.Trail[p.Y][p.X])
	base := tcell.StyleDefault.Background(bg)

	if r, ok := overlay[p]; ok {
		fg := tcell.ColorYellow
		if r == visualization.GlyphWalker {
			fg = tcell.ColorWhite
		}
		return r, base.Foreground(fg).Bold(true)
	}
	if snap.Obstacles[p.Y][p.X] {
		return visualization.GlyphObstacle, base.Foreground(tcell.ColorGreen)
	}
	return ' ', base
}

// groundColor blends a green elevation shade towards bare earth as trail
// strength rises.
func groundColor(elevation, trail float64) tcell.Color {
	elevation = max(0, min(1, elevation))
	trail = max(0, min(1, trail))
	green := 60 + 80*elevation
	r := int32(30 + (150-30)*trail)
	g := int32(green + (110-green)*trail)
	b := int32(20 + (60-20)*trail)
	return tcell.NewRGBColor(r, g, b)
}
