// Package timemath converts between timeline pixels and project seconds
// and quantises seconds to the project's frame-per-second grid.
package timemath

import (
	"fmt"
	"math"
)

// MaxCanvasWidth is the largest pixel width the renderer will ever be
// asked to draw; wider timelines are clamped to avoid browser canvas
// limits.
const MaxCanvasWidth = 32767

// FPS is a rational frames-per-second value; Den must never be zero.
type FPS struct {
	Num int
	Den int
}

// Value returns num/den as a float64.
func (f FPS) Value() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// PixelsPerSecond implements pixelsPerSecond = tickPixels / scale.
func PixelsPerSecond(tickPixels, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return tickPixels / scale
}

// PixelToTime converts a pixel offset to seconds given pixelsPerSecond.
func PixelToTime(px, pixelsPerSecond float64) float64 {
	if pixelsPerSecond == 0 {
		return 0
	}
	return px / pixelsPerSecond
}

// TimeToPixel is the inverse of PixelToTime.
func TimeToPixel(seconds, pixelsPerSecond float64) float64 {
	return seconds * pixelsPerSecond
}

// SnapToFPSGridTime rounds t to the nearest whole frame on the f grid.
func SnapToFPSGridTime(t float64, f FPS) float64 {
	if f.Num == 0 {
		return t
	}
	frame := math.Round(t * float64(f.Num) / float64(f.Den))
	return frame * float64(f.Den) / float64(f.Num)
}

// SecondsToTimecode formats t as HH:MM:SS,frame where frame is
// round(t*F) mod F. Used only for the ruler readout.
func SecondsToTimecode(t float64, f FPS) string {
	rate := f.Value()
	if rate <= 0 {
		rate = 1
	}

	totalFrames := int64(math.Round(t * rate))
	if totalFrames < 0 {
		totalFrames = 0
	}

	framesPerSecond := int64(math.Round(rate))
	if framesPerSecond <= 0 {
		framesPerSecond = 1
	}

	frame := totalFrames % framesPerSecond
	totalSeconds := totalFrames / framesPerSecond
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60

	return fmt.Sprintf("%02d:%02d:%02d,%02d", hours, minutes, seconds, frame)
}

// ClampCanvasWidth caps px at MaxCanvasWidth to avoid rendering limits.
func ClampCanvasWidth(px float64) float64 {
	if px > MaxCanvasWidth {
		return MaxCanvasWidth
	}
	return px
}

// ToNumber returns value if it is finite, otherwise fallback. Mirrors
// the toNumber(value, fallback) boundary pattern from the browser
// engine: invalid numerics never propagate into time or pixel math.
func ToNumber(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return value
}
