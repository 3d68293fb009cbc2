package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luki/simtemp/internal/sample"
)

type bootClock struct{}

func (bootClock) Now() time.Time           { return time.Date(2026, 2, 21, 14, 30, 10, 0, time.UTC) }
func (bootClock) SinceBoot() time.Duration { return 10 * time.Second }

func TestRecorderRoundTrip(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir, bootClock{})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	samples := []sample.Sample{
		{TimestampNs: 1_000_000_000, TempMilliC: 25000, Flags: sample.FlagNewSample},
		{TimestampNs: 1_100_000_000, TempMilliC: 46100, Flags: sample.FlagNewSample | sample.FlagThresholdCrossed},
	}
	for _, s := range samples {
		rec.Observe(s)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := LoadFile(filepath.Join(dir, "2026-02-21.csv"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	if loaded[0].Sample() != samples[0] || loaded[0].Alert {
		t.Errorf("first record: got %+v", loaded[0])
	}
	if loaded[1].Sample() != samples[1] || !loaded[1].Alert {
		t.Errorf("second record: got %+v", loaded[1])
	}
	want := time.Date(2026, 2, 21, 14, 30, 1, 100_000_000, time.UTC)
	if !loaded[1].Time.Equal(want) {
		t.Errorf("second record time: got %v, want %v", loaded[1].Time, want)
	}
}

func TestRecorderAppendsWithSingleHeader(t *testing.T) {
	dir := t.TempDir()

	for range 2 {
		rec, err := NewRecorder(dir, bootClock{})
		if err != nil {
			t.Fatalf("NewRecorder: %v", err)
		}
		if err := rec.Write(sample.Sample{TimestampNs: 1, TempMilliC: 25000}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		rec.Close()
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026-02-21.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines:\n%s", lines, data)
	}
}

func TestListDaysNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2026-02-20.csv", "2026-02-22.csv", "2026-02-21.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	days, err := ListDays(dir)
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	want := []string{"2026-02-22", "2026-02-21", "2026-02-20"}
	if len(days) != len(want) {
		t.Fatalf("got %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d]: got %s, want %s", i, days[i], want[i])
		}
	}
}

func TestLoadDayRejectsBadDate(t *testing.T) {
	if _, err := LoadDay(t.TempDir(), "../etc/passwd"); err == nil {
		t.Error("expected error for malformed day")
	}
}
