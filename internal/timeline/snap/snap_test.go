package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
)

func TestFindSnapsToPlayhead(t *testing.T) {
	p := &project.Project{
		PlayheadPosition: 5.0,
		Duration:         60,
	}
	pps := 100.0 // 100 px/sec

	// Candidate edge at 5.004s -> 500.4px, threshold equivalent to 0.01s -> 1px.
	candidatePx := 5.004 * pps
	result := Find([]float64{candidatePx}, pps, p, Options{ThresholdPx: 1.0}, nil)

	require.True(t, result.Found)
	assert.Equal(t, TargetPlayhead, result.Target.Kind)
	assert.InDelta(t, 500.0, result.TargetPixel, 1e-9)

	corrected := candidatePx - result.OffsetPixels
	assert.InDelta(t, 500.0, corrected, 1e-9)
}

func TestFindIgnoresDraggedEntities(t *testing.T) {
	p := &project.Project{
		Clips: []*project.Clip{{ID: "c1", Position: 1, Start: 0, End: 2}},
	}
	pps := 100.0

	result := Find([]float64{100}, pps, p, Options{ThresholdPx: 5, Ignored: map[string]bool{"c1": true}}, nil)
	assert.False(t, result.Found)
}

func TestFindPrefersFirstInScanOrderOnTie(t *testing.T) {
	p := &project.Project{
		Clips:   []*project.Clip{{ID: "c1", Position: 1, Start: 0, End: 1}},
		Markers: []*project.Marker{{ID: "m1", Position: 1}},
	}
	pps := 100.0

	result := Find([]float64{100}, pps, p, Options{ThresholdPx: 5}, nil)
	require.True(t, result.Found)
	assert.Equal(t, TargetClipLeft, result.Target.Kind, "clip edges scan before markers")
}

func TestFindUsesExtraTargets(t *testing.T) {
	p := &project.Project{}
	pps := 100.0
	extra := []Target{{Kind: TargetKeyframe, EntityID: "c1", Seconds: 2.0}}

	result := Find([]float64{201}, pps, p, Options{ThresholdPx: 5}, extra)
	require.True(t, result.Found)
	assert.Equal(t, TargetKeyframe, result.Target.Kind)
}
