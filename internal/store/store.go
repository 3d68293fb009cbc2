// Package store handles persistent CSV storage of samples with daily file
// rotation. Data is stored in ~/.simtemp-data/ unless a directory is given.
package store

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/sample"
)

const (
	dirName    = ".simtemp-data"
	fileLayout = "2006-01-02"
)

var header = []string{"time", "timestamp_ns", "temp_mc", "flags", "alert"}

// Recorder appends samples to DIR/YYYY-MM-DD.csv with the format:
//
//	time,timestamp_ns,temp_mc,flags,alert
//
// The day is taken from the sample's wall-clock time in UTC.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	clock   sample.Clock
	current *os.File
	writer  *csv.Writer
	curDate string
	err     error
}

// Record is a single row from a CSV log file.
type Record struct {
	Time        time.Time
	TimestampNs uint64
	TempMilliC  int32
	Flags       uint32
	Alert       bool
}

// Sample returns the decoded sample the row was written from.
func (r Record) Sample() sample.Sample {
	return sample.Sample{TimestampNs: r.TimestampNs, TempMilliC: r.TempMilliC, Flags: r.Flags}
}

// NewRecorder creates the directory if needed. An empty dir means DataDir().
func NewRecorder(dir string, clock sample.Clock) (*Recorder, error) {
	if dir == "" {
		dir = DataDir()
	}
	if clock == nil {
		clock = sample.SystemClock{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "cannot create data dir", err,
			map[string]any{"dir": dir})
	}
	return &Recorder{dir: dir, clock: clock}, nil
}

// Dir returns the directory files are written to.
func (r *Recorder) Dir() string {
	return r.dir
}

// Observe writes s and keeps the first error for Close.
func (r *Recorder) Observe(s sample.Sample) {
	if err := r.Write(s); err != nil {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
			slog.Warn("sample recording failed", slog.String("dir", r.dir), slog.String("error", err.Error()))
		}
		r.mu.Unlock()
	}
}

// Write appends one sample to the file for its day.
func (r *Recorder) Write(s sample.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := sample.WallTime(r.clock, s.TimestampNs)
	dateStr := t.Format(fileLayout)

	if r.curDate != dateStr || r.current == nil {
		r.closeLocked()
		path := filepath.Join(r.dir, dateStr+".csv")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.WrapWithContext(errors.ErrCodeIO, "cannot open record file", err,
				map[string]any{"path": path})
		}
		r.current = f
		r.writer = csv.NewWriter(f)
		r.curDate = dateStr

		if info, err := f.Stat(); err == nil && info.Size() == 0 {
			r.writer.Write(header)
		}
	}

	r.writer.Write([]string{
		sample.FormatISO(t),
		strconv.FormatUint(s.TimestampNs, 10),
		strconv.FormatInt(int64(s.TempMilliC), 10),
		strconv.FormatUint(uint64(s.Flags), 10),
		strconv.Itoa(s.AlertBit()),
	})
	r.writer.Flush()
	return r.writer.Error()
}

// Close flushes and closes the current file and returns the first write
// error seen by Observe.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return r.err
}

func (r *Recorder) closeLocked() {
	if r.writer != nil {
		r.writer.Flush()
		r.writer = nil
	}
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
}

// ListDays returns available log dates (newest first).
func ListDays(dir string) ([]string, error) {
	if dir == "" {
		dir = DataDir()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var days []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".csv") {
			days = append(days, strings.TrimSuffix(name, ".csv"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// LoadDay reads all records from a specific day's CSV file.
func LoadDay(dir, day string) ([]Record, error) {
	if dir == "" {
		dir = DataDir()
	}
	if _, err := time.Parse(fileLayout, day); err != nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"day must be YYYY-MM-DD", map[string]any{"day": day})
	}
	return LoadFile(filepath.Join(dir, day+".csv"))
}

// LoadFile reads all records from a CSV file. Malformed rows are skipped.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "time" {
			continue
		}
		if len(row) < len(header) {
			continue
		}

		t, err := time.Parse(time.RFC3339Nano, row[0])
		if err != nil {
			continue
		}
		ts, err := strconv.ParseUint(row[1], 10, 64)
		if err != nil {
			continue
		}
		temp, err := strconv.ParseInt(row[2], 10, 32)
		if err != nil {
			continue
		}
		flags, _ := strconv.ParseUint(row[3], 10, 32)

		records = append(records, Record{
			Time:        t,
			TimestampNs: ts,
			TempMilliC:  int32(temp),
			Flags:       uint32(flags),
			Alert:       row[4] == "1",
		})
	}

	return records, nil
}

// DataDir returns the path to the default data directory.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}
