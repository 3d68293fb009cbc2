// Package history provides a ring-buffer based temperature history with
// session min/peak/avg and alert statistics.
package history

import (
	"math"
	"sync"
	"time"

	"github.com/luki/simtemp/internal/sample"
)

// Point is a single data point in the temperature history.
type Point struct {
	Temp  float64 // °C
	Time  time.Time
	Alert bool
}

// Stats summarizes every point pushed since the buffer was created, not only
// the ones still held.
type Stats struct {
	Count  int
	Alerts int
	Min    float64
	Peak   float64
	Avg    float64
	First  time.Time
	Last   time.Time
}

// Buffer stores a ring buffer of temperature points. It is safe for one
// writer and concurrent readers.
type Buffer struct {
	mu     sync.RWMutex
	points []Point
	max    int
	clock  sample.Clock

	count  int
	alerts int
	sum    float64
	min    float64
	peak   float64
	first  time.Time
}

// NewBuffer creates a new history ring buffer with the given capacity.
// clock converts sample timestamps in Observe; nil means the system clock.
func NewBuffer(capacity int, clock sample.Clock) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	if clock == nil {
		clock = sample.SystemClock{}
	}
	return &Buffer{
		points: make([]Point, 0, capacity),
		max:    capacity,
		clock:  clock,
		min:    math.MaxFloat64,
		peak:   -math.MaxFloat64,
	}
}

// Observe records a decoded sample.
func (b *Buffer) Observe(s sample.Sample) {
	b.Push(Point{
		Temp:  s.Celsius(),
		Time:  sample.WallTime(b.clock, s.TimestampNs),
		Alert: s.Alert(),
	})
}

// Push adds a point to the history.
func (b *Buffer) Push(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.points) >= b.max {
		copy(b.points, b.points[1:])
		b.points[len(b.points)-1] = p
	} else {
		b.points = append(b.points, p)
	}

	if b.count == 0 {
		b.first = p.Time
	}
	b.count++
	b.sum += p.Temp
	if p.Alert {
		b.alerts++
	}
	if p.Temp < b.min {
		b.min = p.Temp
	}
	if p.Temp > b.peak {
		b.peak = p.Temp
	}
}

// Len returns the number of points held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// Last returns the most recent point, or false if empty.
func (b *Buffer) Last() (Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.points) == 0 {
		return Point{}, false
	}
	return b.points[len(b.points)-1], true
}

// Avg returns the average temperature across the stored points.
func (b *Buffer) Avg() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range b.points {
		sum += p.Temp
	}
	return sum / float64(len(b.points))
}

// LastN returns the last n temperature values (for chart rendering).
func (b *Buffer) LastN(n int) []float64 {
	pts := b.LastNPoints(n)
	if pts == nil {
		return nil
	}
	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = p.Temp
	}
	return vals
}

// LastNPoints returns a copy of the last n points.
func (b *Buffer) LastNPoints(n int) []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || len(b.points) == 0 {
		return nil
	}
	start := max(len(b.points)-n, 0)
	out := make([]Point, len(b.points[start:]))
	copy(out, b.points[start:])
	return out
}

// Stats returns the session statistics.
func (b *Buffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return Stats{}
	}
	st := Stats{
		Count:  b.count,
		Alerts: b.alerts,
		Min:    b.min,
		Peak:   b.peak,
		Avg:    b.sum / float64(b.count),
		First:  b.first,
	}
	if len(b.points) > 0 {
		st.Last = b.points[len(b.points)-1].Time
	}
	return st
}
