package sample

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simerrors "github.com/luki/simtemp/internal/errors"
)

func TestDecodeScenario(t *testing.T) {
	// timestamp=1, temp=25000 (0x61A8), flags=2, little-endian
	raw := []byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xA8, 0x61, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}

	s, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.TimestampNs)
	assert.Equal(t, int32(25000), s.TempMilliC)
	assert.Equal(t, 25.0, s.Celsius())
	assert.Equal(t, "25.0", FormatCelsius(s.TempMilliC))
	assert.True(t, s.Alert())
	assert.Equal(t, 1, s.AlertBit())
}

func TestDecodeWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 10, 15, 17, 32} {
		s, err := Decode(make([]byte, n))
		require.Error(t, err, "len=%d", n)
		assert.ErrorIs(t, err, ErrShortRecord)
		assert.True(t, simerrors.IsCode(err, simerrors.ErrCodeDecode))
		assert.Equal(t, Sample{}, s, "no partial sample for len=%d", n)
	}
}

func TestDecodeEncodeBijection(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		want := Sample{
			TimestampNs: r.Uint64(),
			TempMilliC:  int32(r.Uint32()),
			Flags:       r.Uint32(),
		}
		got, err := Decode(want.Encode())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodeNegativeTemperature(t *testing.T) {
	s, err := Decode(Sample{TempMilliC: -1500}.Encode())
	require.NoError(t, err)
	assert.Equal(t, int32(-1500), s.TempMilliC)
	assert.Equal(t, "-1.5", FormatCelsius(s.TempMilliC))
}

func TestAlertOnlyBitOne(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	flags := []uint32{0, 1, 2, 3, 4, 0xFFFFFFFF, 0xFFFFFFFD}
	for i := 0; i < 1000; i++ {
		flags = append(flags, r.Uint32())
	}
	for _, f := range flags {
		s := Sample{Flags: f}
		assert.Equal(t, f&0x2 != 0, s.Alert(), "flags=%#x", f)
	}
}

func TestFresh(t *testing.T) {
	assert.True(t, Sample{Flags: FlagNewSample}.Fresh())
	assert.False(t, Sample{Flags: FlagThresholdCrossed}.Fresh())
}

func TestFormatCelsius(t *testing.T) {
	tests := []struct {
		in   int32
		want string
	}{
		{25000, "25.0"},
		{24987, "24.987"},
		{24990, "24.99"},
		{0, "0.0"},
		{-250, "-0.25"},
		{45100, "45.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCelsius(tt.in), "in=%d", tt.in)
	}
}

type fixedClock struct {
	now   time.Time
	since time.Duration
}

func (c fixedClock) Now() time.Time           { return c.now }
func (c fixedClock) SinceBoot() time.Duration { return c.since }

func TestWallTime(t *testing.T) {
	c := fixedClock{
		now:   time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC),
		since: 10 * time.Second,
	}
	// boot = 12:00:00, sample 2.5s after boot
	got := FormatISO(WallTime(c, 2_500_000_000))
	assert.Equal(t, "2026-03-01T12:00:02.500Z", got)
}

func TestWallTimeMonotonic(t *testing.T) {
	c := fixedClock{
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		since: 3 * time.Hour,
	}
	r := rand.New(rand.NewPCG(5, 6))
	var ts uint64
	prev := WallTime(c, ts)
	for i := 0; i < 500; i++ {
		ts += uint64(r.IntN(5_000_000))
		cur := WallTime(c, ts)
		require.False(t, cur.Before(prev))
		require.LessOrEqual(t, FormatISO(prev), FormatISO(cur))
		prev = cur
	}
}

func TestWallClockFormat(t *testing.T) {
	got := WallClock(SystemClock{}, uint64(SystemClock{}.SinceBoot()))
	assert.True(t, strings.HasSuffix(got, "Z"), got)
	assert.NotContains(t, got, "+00:00")
	parsed, err := time.Parse(isoLayout, got)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, 2*time.Second)
}
