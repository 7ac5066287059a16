package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCountPolicy(t *testing.T) {
	backups := []BackupInfo{{Path: "c"}, {Path: "b"}, {Path: "a"}}
	if got := (&CountPolicy{MaxCount: 2}).Apply(backups); len(got) != 2 || got[1].Path != "b" {
		t.Errorf("Apply() = %v", got)
	}
	if got := (&CountPolicy{MaxCount: 5}).Apply(backups); len(got) != 3 {
		t.Errorf("Apply() = %v", got)
	}
}

func TestAgePolicy(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p := &AgePolicy{MaxAge: 48 * time.Hour, now: func() time.Time { return now }}
	backups := []BackupInfo{
		{Path: "new", CreatedAt: now.Add(-time.Hour)},
		{Path: "old", CreatedAt: now.Add(-72 * time.Hour)},
	}
	got := p.Apply(backups)
	if len(got) != 1 || got[0].Path != "new" {
		t.Errorf("Apply() = %v", got)
	}
}

func TestListAndApplyRetention(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"desirepath-backup-20260101-000000.json.gz",
		"desirepath-backup-20260102-000000.json.gz",
		"desirepath-backup-20260103-000000.json.gz",
		"notes.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	list, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(list) != 3 || filepath.Base(list[0].Path) != names[2] {
		t.Fatalf("ListBackups() = %v", list)
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 1})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, names[2])); err != nil {
		t.Errorf("newest backup removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	list, err := ListBackups(filepath.Join(t.TempDir(), "none"))
	if err != nil || list != nil {
		t.Fatalf("ListBackups() = %v, %v", list, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"3y", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v", tt.in, got, err)
		}
	}
}
