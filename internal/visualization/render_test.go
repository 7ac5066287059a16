package visualization

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/goals"
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/obstacle"
	"github.com/nvandessel/desirepath/internal/terrain"
	"github.com/nvandessel/desirepath/internal/world"
)

// newTestWorld builds a 5x5 flat world with one tree at (2,0), one goal at
// (4,4) and one walker starting at (0,0).
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

func TestRenderASCII_Layers(t *testing.T) {
	w := newTestWorld(t)
	snap := w.Snapshot()

	tests := []struct {
		layer constants.Layer
		want  string
	}{
		{constants.LayerComposite, "@ #  \n     \n     \n     \n    G\n"},
		{constants.LayerObstacles, "..#..\n.....\n.....\n.....\n.....\n"},
		{constants.LayerTerrain, "55555\n55555\n55555\n55555\n55555\n"},
		{constants.LayerTrail, "     \n     \n     \n     \n     \n"},
	}
	for _, tt := range tests {
		t.Run(tt.layer.String(), func(t *testing.T) {
			got, err := RenderASCII(snap, tt.layer)
			if err != nil {
				t.Fatalf("RenderASCII: %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderASCII(%s) =\n%q\nwant\n%q", tt.layer, got, tt.want)
			}
		})
	}
}

func TestRenderASCII_TrailAfterStep(t *testing.T) {
	w := newTestWorld(t)
	w.Step()
	snap := w.Snapshot()

	trail, err := RenderASCII(snap, constants.LayerTrail)
	if err != nil {
		t.Fatalf("RenderASCII: %v", err)
	}
	if want := "     \n .   \n     \n     \n     \n"; trail != want {
		t.Errorf("trail layer =\n%q\nwant\n%q", trail, want)
	}

	composite, _ := RenderASCII(snap, constants.LayerComposite)
	if want := "  #  \n @   \n     \n     \n    G\n"; composite != want {
		t.Errorf("composite layer =\n%q\nwant\n%q", composite, want)
	}
}

func TestRenderASCII_UnknownLayer(t *testing.T) {
	w := newTestWorld(t)
	if _, err := RenderASCII(w.Snapshot(), constants.Layer("sky")); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestRampGlyph(t *testing.T) {
	tests := []struct {
		v    float64
		want byte
	}{
		{0, ' '},
		{0.1, '.'},
		{0.5, '='},
		{0.7, '+'},
		{1, '%'},
		{1.5, '%'},
		{-1, ' '},
	}
	for _, tt := range tests {
		if got := rampGlyph(TrailRamp, tt.v); got != tt.want {
			t.Errorf("rampGlyph(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestDecileGlyph(t *testing.T) {
	tests := []struct {
		v    float64
		want byte
	}{
		{0, '0'},
		{0.09, '0'},
		{0.15, '1'},
		{0.5, '5'},
		{0.95, '9'},
		{1, '9'},
		{-0.2, '0'},
		{1.3, '9'},
	}
	for _, tt := range tests {
		if got := decileGlyph(tt.v); got != tt.want {
			t.Errorf("decileGlyph(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestRenderJSON_Layers(t *testing.T) {
	w := newTestWorld(t)
	snap := w.Snapshot()

	tests := []struct {
		layer   constants.Layer
		present []string
		absent  []string
	}{
		{constants.LayerTerrain, []string{"elevation"}, []string{"trail", "obstacles", "walkers"}},
		{constants.LayerObstacles, []string{"obstacles"}, []string{"trail", "elevation"}},
		{constants.LayerTrail, []string{"trail"}, []string{"obstacles", "goals"}},
		{constants.LayerComposite, []string{"elevation", "obstacles", "trail", "goals", "walkers"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.layer.String(), func(t *testing.T) {
			got, err := RenderJSON(snap, tt.layer)
			if err != nil {
				t.Fatalf("RenderJSON: %v", err)
			}
			for _, k := range append([]string{"tick", "width", "height", "mean_trail"}, tt.present...) {
				if _, ok := got[k]; !ok {
					t.Errorf("expected key %q", k)
				}
			}
			for _, k := range tt.absent {
				if _, ok := got[k]; ok {
					t.Errorf("unexpected key %q", k)
				}
			}
		})
	}

	if _, err := RenderJSON(snap, constants.Layer("sky")); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestRenderHTML_ProducesValidHTML(t *testing.T) {
	w := newTestWorld(t)
	w.Step()

	html, err := RenderHTML(w.Snapshot(), w.Series())
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	htmlStr := string(html)

	if !strings.Contains(htmlStr, "<!DOCTYPE html>") {
		t.Error("expected DOCTYPE declaration")
	}
	if !strings.Contains(htmlStr, "<title>desirepath") {
		t.Error("expected desirepath title")
	}
	if !strings.Contains(htmlStr, "goal-1") {
		t.Error("expected goal name in embedded snapshot")
	}
}

func TestRenderHTML_DataIsJSObject(t *testing.T) {
	w := newTestWorld(t)

	html, err := RenderHTML(w.Snapshot(), nil)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	htmlStr := string(html)

	if strings.Contains(htmlStr, `var snapshot = "`) {
		t.Error("snapshot is a quoted string, should be an object literal")
	}
	if !strings.Contains(htmlStr, `var snapshot = {`) {
		t.Error("expected snapshot to be an object literal starting with '{'")
	}
	if !strings.Contains(htmlStr, `var series = []`) {
		t.Error("expected empty series array")
	}
}

func TestRenderHTMLForServer_EmbedsAPIBase(t *testing.T) {
	w := newTestWorld(t)

	html, err := RenderHTMLForServer(w.Snapshot(), nil, "http://localhost:1234")
	if err != nil {
		t.Fatalf("RenderHTMLForServer: %v", err)
	}
	if !strings.Contains(string(html), "localhost:1234") {
		t.Error("expected API base URL in page")
	}
}

func TestEscapedJSON_ScriptBreakout(t *testing.T) {
	got, err := escapedJSON(map[string]string{"name": "</script><script>alert(1)</script>"})
	if err != nil {
		t.Fatalf("escapedJSON: %v", err)
	}
	if strings.Contains(got, "</script>") {
		t.Errorf("escapedJSON left a closing script tag: %s", got)
	}
	if !strings.Contains(got, `\u003c/script\u003e`) {
		t.Errorf("expected unicode-escaped tag, got %s", got)
	}
}

func TestFormatValid(t *testing.T) {
	for _, f := range []Format{FormatASCII, FormatJSON, FormatHTML} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Format("dot").Valid() {
		t.Error("dot should not be valid")
	}
}
