package timemath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapToFPSGridTimeIdempotent(t *testing.T) {
	f := FPS{Num: 24, Den: 1}
	t1 := SnapToFPSGridTime(1.2345, f)
	t2 := SnapToFPSGridTime(t1, f)
	require.InDelta(t, t1, t2, 1e-9)
}

func TestPixelToTimeRoundTrip(t *testing.T) {
	pps := PixelsPerSecond(100, 1.0)
	require.InDelta(t, 100.0, pps, 1e-9)

	secs := PixelToTime(250, pps)
	require.InDelta(t, 2.5, secs, 1e-9)

	px := TimeToPixel(secs, pps)
	require.InDelta(t, 250.0, px, 1e-9)
}

func TestSecondsToTimecode(t *testing.T) {
	f := FPS{Num: 24, Den: 1}
	// 1 second and 1 frame in: 25 frames at 24fps = 1s + 1 frame
	tc := SecondsToTimecode(25.0/24.0, f)
	assert.Equal(t, "00:00:01,01", tc)
}

func TestClampCanvasWidth(t *testing.T) {
	assert.Equal(t, float64(MaxCanvasWidth), ClampCanvasWidth(100000))
	assert.Equal(t, 500.0, ClampCanvasWidth(500))
}

func TestToNumberFallback(t *testing.T) {
	assert.Equal(t, 7.0, ToNumber(7.0, 0))
	assert.Equal(t, 3.0, ToNumber(math.NaN(), 3.0))
	assert.Equal(t, 3.0, ToNumber(math.Inf(1), 3.0))
}
