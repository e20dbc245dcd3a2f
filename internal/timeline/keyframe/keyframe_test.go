package keyframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
)

func pointsClip(selected bool) *project.Clip {
	return &project.Clip{
		ID: "c1", Position: 0, Start: 0, End: 4, Selected: selected,
		Properties: map[string]*project.PropertyTrack{
			"alpha": {Points: []project.KeyframePoint{
				{Co: project.Coordinate{X: 1, Y: 0}},
				{Co: project.Coordinate{X: 25, Y: 1}},
			}},
			"location_x": {Points: []project.KeyframePoint{{Co: project.Coordinate{X: 5, Y: 0}}}}, // single point, excluded
			"color": {Red: &project.PropertyTrack{Points: []project.KeyframePoint{
				{Co: project.Coordinate{X: 1}}, {Co: project.Coordinate{X: 10}},
			}}},
		},
	}
}

func TestEnumerateGateHidesUnselectedClip(t *testing.T) {
	c := pointsClip(false)
	entries := Enumerate(c, false, false, "", nil, 24, nil, nil)
	assert.Empty(t, entries)
}

func TestEnumerateSelectedClipReturnsMultiPointTracksOnly(t *testing.T) {
	c := pointsClip(true)
	entries := Enumerate(c, false, false, "", nil, 24, nil, nil)

	_, hasFrame1 := entries[1]
	_, hasFrame25 := entries[25]
	_, hasFrame5 := entries[5]
	require.True(t, hasFrame1)
	require.True(t, hasFrame25)
	assert.False(t, hasFrame5, "single-point track must not contribute")
	assert.Contains(t, entries, 10, "color track contributes via its red channel")
}

func TestEnumeratePropertyFilterIsCaseInsensitiveSubstring(t *testing.T) {
	c := pointsClip(true)
	entries := Enumerate(c, false, false, "ALPHA", nil, 24, nil, nil)
	for _, e := range entries {
		assert.Equal(t, "alpha", e.Type)
	}
}

func TestMappedSecondsTrimKeepsOriginal(t *testing.T) {
	preview := &project.KeyframePreview{Mode: "trim", DisplayStart: 1, DisplayEnd: 3}
	assert.Equal(t, 2.0, MappedSeconds(preview, 2.0))
}

func TestMappedSecondsRetimeScalesIntoDisplayWindow(t *testing.T) {
	preview := &project.KeyframePreview{
		Mode: "retime", ProjectedStart: 0, ProjectedEnd: 4,
		DisplayStart: 0, DisplayEnd: 2,
	}
	// original at the midpoint of the projected window should map to the
	// midpoint of the display window.
	assert.InDelta(t, 1.0, MappedSeconds(preview, 2.0), 1e-9)
}

func TestMappedSecondsRetimeCollapsesOnDegenerateSpan(t *testing.T) {
	preview := &project.KeyframePreview{Mode: "retime", ProjectedStart: 0, ProjectedEnd: 0, DisplayStart: 5, DisplayEnd: 9}
	assert.Equal(t, 5.0, MappedSeconds(preview, 3.0))
}

func TestInsidePreviewHalfFrameTolerance(t *testing.T) {
	fps := 24.0
	assert.True(t, InsidePreview(2.0+0.4/fps, 0, 2.0, fps))
	assert.False(t, InsidePreview(2.0+0.6/fps, 0, 2.0, fps))
}

func TestCommitFrameRewriteAcrossColorChannels(t *testing.T) {
	c := pointsClip(true)
	CommitFrameRewrite(c, 25, 49)

	assert.Equal(t, 49.0, c.Properties["alpha"].Points[1].Co.X)
	assert.Equal(t, 1.0, c.Properties["alpha"].Points[0].Co.X, "non-matching frames untouched")

	CommitFrameRewrite(c, 10, 12)
	assert.Equal(t, 12.0, c.Properties["color"].Red.Points[1].Co.X, "color channel points are rewritten too")
}

func TestClampFrameExclusiveRightEdge(t *testing.T) {
	assert.Equal(t, 10, ClampFrame(5, 10, 20))
	assert.Equal(t, 19, ClampFrame(25, 10, 20))
	assert.Equal(t, 15, ClampFrame(15, 10, 20))
}
