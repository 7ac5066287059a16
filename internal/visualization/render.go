// Package visualization renders world snapshots as text, JSON and HTML and
// serves them over HTTP.
package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/world"
)

// Format specifies the output format for snapshot rendering.
type Format string

const (
	FormatASCII Format = "ascii"
	FormatJSON  Format = "json"
	FormatHTML  Format = "html"
)

// Valid returns true if the format is a recognized value.
func (f Format) Valid() bool {
	switch f {
	case FormatASCII, FormatJSON, FormatHTML:
		return true
	}
	return false
}

// Glyphs used by RenderASCII.
const (
	GlyphObstacle = '#'
	GlyphGoal     = 'G'
	GlyphWalker   = '@'
	GlyphFree     = '.'
)

// TrailRamp maps trail strength in [0,1] to increasing ink.
const TrailRamp = " .:-=+*%"

// ElevationRamp maps normalised elevation to deciles.
const ElevationRamp = "0123456789"

// rampGlyph picks the ramp entry nearest to v in [0,1]: v*(len-1) rounded
// half up, so with TrailRamp 0.5 maps to index 4 ('='). Out-of-range values
// clamp to the ends.
func rampGlyph(ramp string, v float64) byte {
	i := int(v*float64(len(ramp)-1) + 0.5)
	i = max(0, min(len(ramp)-1, i))
	return ramp[i]
}

// decileGlyph buckets v in [0,1] into ten equal bins, 1 falling in the last.
func decileGlyph(v float64) byte {
	i := max(0, min(9, int(v*10)))
	return ElevationRamp[i]
}

// RenderASCII draws one character per cell, one line per row, north first.
// The composite layer overlays walkers over goals over obstacles over trail.
func RenderASCII(s world.Snapshot, layer constants.Layer) (string, error) {
	if !layer.Valid() {
		return "", fmt.Errorf("unknown layer: %q", layer)
	}

	rows := make([][]byte, s.Height)
	for y := range rows {
		row := make([]byte, s.Width)
		for x := range row {
			switch layer {
			case constants.LayerTerrain:
				row[x] = decileGlyph(s.Elevation[y][x])
			case constants.LayerObstacles:
				row[x] = GlyphFree
				if s.Obstacles[y][x] {
					row[x] = GlyphObstacle
				}
			case constants.LayerTrail, constants.LayerComposite:
				row[x] = rampGlyph(TrailRamp, s.Trail[y][x])
				if layer == constants.LayerComposite && s.Obstacles[y][x] {
					row[x] = GlyphObstacle
				}
			}
		}
		rows[y] = row
	}

	if layer == constants.LayerComposite {
		put := func(p grid.Point, c byte) {
			if p.Y >= 0 && p.Y < s.Height && p.X >= 0 && p.X < s.Width {
				rows[p.Y][p.X] = c
			}
		}
		for _, g := range s.Goals {
			put(g.Pos, GlyphGoal)
		}
		for _, w := range s.Walkers {
			put(w.Pos, GlyphWalker)
		}
	}

	var b strings.Builder
	b.Grow((s.Width + 1) * s.Height)
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// RenderJSON returns the parts of the snapshot belonging to layer. The
// composite layer returns every layer plus goals and walkers.
func RenderJSON(s world.Snapshot, layer constants.Layer) (map[string]any, error) {
	out := map[string]any{
		"tick":       s.Tick,
		"width":      s.Width,
		"height":     s.Height,
		"mean_trail": s.MeanTrail,
	}
	switch layer {
	case constants.LayerTerrain:
		out["elevation"] = s.Elevation
	case constants.LayerObstacles:
		out["obstacles"] = s.Obstacles
	case constants.LayerTrail:
		out["trail"] = s.Trail
	case constants.LayerComposite:
		out["elevation"] = s.Elevation
		out["obstacles"] = s.Obstacles
		out["trail"] = s.Trail
		out["goals"] = s.Goals
		out["walkers"] = s.Walkers
	default:
		return nil, fmt.Errorf("unknown layer: %q", layer)
	}
	return out, nil
}

// htmlTemplateData holds data passed to the HTML template.
// The JSON fields are pre-sanitized via json.HTMLEscape and safe for inline <script>.
type htmlTemplateData struct {
	Tick         int
	SnapshotJSON template.JS
	SeriesJSON   template.JS
	APIBase      string
}

// RenderHTML produces a self-contained heatmap page of the snapshot and the
// mean trail series.
func RenderHTML(s world.Snapshot, series []float64) ([]byte, error) {
	return renderHTML(s, series, "")
}

// RenderHTMLForServer is RenderHTML with live controls that call back to
// apiBase.
func RenderHTMLForServer(s world.Snapshot, series []float64, apiBase string) ([]byte, error) {
	return renderHTML(s, series, apiBase)
}

func renderHTML(s world.Snapshot, series []float64, apiBase string) ([]byte, error) {
	snapJSON, err := escapedJSON(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if series == nil {
		series = []float64{}
	}
	seriesJSON, err := escapedJSON(series)
	if err != nil {
		return nil, fmt.Errorf("marshal series: %w", err)
	}

	tmpl, err := template.ParseFS(templates, "templates/heatmap.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	data := htmlTemplateData{
		Tick:         s.Tick,
		SnapshotJSON: template.JS(snapJSON),
		SeriesJSON:   template.JS(seriesJSON),
		APIBase:      apiBase,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// escapedJSON marshals v with <, > and & escaped so it cannot close a
// <script> element.
func escapedJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, raw)
	return escaped.String(), nil
}
