// Package snap implements the timeline's snap-to-feature engine: given
// one or more candidate pixel positions, it finds the nearest
// interesting timeline feature (clip/transition edge, marker,
// playhead, timeline end, or caller-supplied keyframe positions)
// within a pixel threshold.
package snap

import (
	"math"

	"timelinehost/internal/timeline/project"
)

// TargetKind names the kind of feature a snap target represents.
type TargetKind string

const (
	TargetClipLeft        TargetKind = "clip-left"
	TargetClipRight       TargetKind = "clip-right"
	TargetTransitionLeft  TargetKind = "transition-left"
	TargetTransitionRight TargetKind = "transition-right"
	TargetMarker          TargetKind = "marker"
	TargetPlayhead        TargetKind = "playhead"
	TargetTimelineEnd     TargetKind = "timeline-end"
	TargetKeyframe        TargetKind = "keyframe"
)

// Target is one candidate snap feature, expressed in project seconds.
type Target struct {
	Kind     TargetKind
	EntityID string
	Seconds  float64
}

// Options configures a single snap query.
type Options struct {
	ThresholdPx float64
	// Ignored holds entity IDs to exclude from the built-in scan (the
	// items currently being dragged).
	Ignored map[string]bool
}

// Result is the outcome of a snap query.
type Result struct {
	Found        bool
	Target       Target
	TargetPixel  float64
	OffsetPixels float64 // candidate - target, signed
}

// Find scans clips, transitions, markers, the playhead and the
// timeline end (in that order), plus any caller-supplied extraTargets
// (used for visible keyframes, computed
// by the keyframe package and passed in so this package stays a leaf
// with no dependency on keyframe enumeration), and returns the nearest
// target to any of candidatesPx within opts.ThresholdPx. Ties are
// broken by scan order: clip edges, transition edges, markers,
// playhead, timeline end, then extraTargets in the order given.
func Find(candidatesPx []float64, pixelsPerSecond float64, p *project.Project, opts Options, extraTargets []Target) Result {
	targets := buildTargets(p, opts.Ignored)
	targets = append(targets, extraTargets...)

	var best Result
	for _, target := range targets {
		targetPx := target.Seconds * pixelsPerSecond
		for _, candidate := range candidatesPx {
			diff := candidate - targetPx
			abs := math.Abs(diff)
			if abs > opts.ThresholdPx {
				continue
			}
			if !best.Found || abs < math.Abs(best.OffsetPixels) {
				best = Result{
					Found:        true,
					Target:       target,
					TargetPixel:  targetPx,
					OffsetPixels: diff,
				}
			}
		}
	}
	return best
}

func buildTargets(p *project.Project, ignored map[string]bool) []Target {
	var targets []Target

	for _, c := range p.Clips {
		if ignored[c.ID] {
			continue
		}
		start, end := c.TimeExtent()
		targets = append(targets, Target{Kind: TargetClipLeft, EntityID: c.ID, Seconds: start})
		targets = append(targets, Target{Kind: TargetClipRight, EntityID: c.ID, Seconds: end})
	}

	for _, t := range p.Effects {
		if ignored[t.ID] {
			continue
		}
		start, end := t.TimeExtent()
		targets = append(targets, Target{Kind: TargetTransitionLeft, EntityID: t.ID, Seconds: start})
		targets = append(targets, Target{Kind: TargetTransitionRight, EntityID: t.ID, Seconds: end})
	}

	for _, m := range p.Markers {
		targets = append(targets, Target{Kind: TargetMarker, EntityID: m.ID, Seconds: m.Position})
	}

	targets = append(targets, Target{Kind: TargetPlayhead, Seconds: p.PlayheadPosition})
	targets = append(targets, Target{Kind: TargetTimelineEnd, Seconds: p.Duration})

	return targets
}
