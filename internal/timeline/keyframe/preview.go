package keyframe

import (
	"math"

	"timelinehost/internal/timeline/project"
)

// MappedSeconds applies the trim/retime preview transform to a
// keyframe's original project-time seconds.
//
// Trim keeps the project-time position unchanged; the preview window
// just moves around it. Retime stretches/compresses original seconds
// from [projectedStart, projectedEnd] onto [displayStart, displayEnd],
// collapsing to displayStart when either span is degenerate.
func MappedSeconds(preview *project.KeyframePreview, originalSeconds float64) float64 {
	if preview == nil || preview.Mode == "trim" {
		return originalSeconds
	}

	projectedDuration := preview.ProjectedEnd - preview.ProjectedStart
	displayDuration := preview.DisplayEnd - preview.DisplayStart
	if projectedDuration == 0 || displayDuration == 0 {
		return preview.DisplayStart
	}

	return preview.DisplayStart + ((originalSeconds-preview.ProjectedStart)/projectedDuration)*displayDuration
}

// InsidePreview reports whether mapped seconds fall inside
// [displayStart, displayEnd], within a half-frame tolerance.
func InsidePreview(mapped, displayStart, displayEnd, fps float64) bool {
	tolerance := 0.5 / fps
	if fps == 0 {
		tolerance = 1e-9
	}
	if tolerance < 1e-9 {
		tolerance = 1e-9
	}
	return mapped >= displayStart-tolerance && mapped <= displayEnd+tolerance
}

// LeftPixel computes the DOM repositioning offset for a mapped
// keyframe icon.
func LeftPixel(mapped, displayStart, pixelsPerSecond float64) int {
	return int(math.Round((mapped - displayStart) * pixelsPerSecond))
}
