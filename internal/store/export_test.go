package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/desirepath/internal/world"
)

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	series := []world.TickStats{
		{Tick: 0},
		{Tick: 1, MeanTrail: 0.004, MaxTrail: 0.1, CoveredCells: 10, Traveling: 9, Idle: 1},
	}
	if err := ExportCSV(&buf, series); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	want := "tick,mean_trail,max_trail,covered_cells,traveling,idle\n" +
		"0,0,0,0,0,0\n" +
		"1,0.004,0.1,10,9,1\n"
	if buf.String() != want {
		t.Errorf("ExportCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestExportImportJSONL(t *testing.T) {
	var buf bytes.Buffer
	series := sampleSeries(4)
	if err := ExportJSONL(&buf, series); err != nil {
		t.Fatalf("ExportJSONL() error = %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("ExportJSONL() wrote %d lines, want 4", lines)
	}

	got, err := ImportJSONL(strings.NewReader(buf.String() + "\n"))
	if err != nil {
		t.Fatalf("ImportJSONL() error = %v", err)
	}
	if len(got) != len(series) {
		t.Fatalf("ImportJSONL() returned %d ticks, want %d", len(got), len(series))
	}
	for i := range series {
		if got[i] != series[i] {
			t.Errorf("tick %d = %+v, want %+v", i, got[i], series[i])
		}
	}
}

func TestImportJSONL_Malformed(t *testing.T) {
	_, err := ImportJSONL(strings.NewReader("{\"tick\":0}\n{not json\n"))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line, got: %v", err)
	}
}

func TestExportRunCSV(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStatsStore()
	id, _ := s.CreateRun(ctx, Run{})
	if err := s.RecordTicks(ctx, id, sampleSeries(3)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ExportRunCSV(ctx, s, id, &buf); err != nil {
		t.Fatalf("ExportRunCSV() error = %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("ExportRunCSV() wrote %d lines, want header + 3", lines)
	}

	if err := ExportRunCSV(ctx, s, "missing", &buf); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ExportRunCSV(missing) error = %v, want ErrRunNotFound", err)
	}
}
