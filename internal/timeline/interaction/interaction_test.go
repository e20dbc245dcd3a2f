package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/snap"
	"timelinehost/internal/timeline/timemath"
)

var fps24 = timemath.FPS{Num: 24, Den: 1}

func TestLeftHandleTrimHitsZeroNormalClip(t *testing.T) {
	c := &project.Clip{Position: 2.0, Start: 1.0, End: 5.0}
	session := BeginResize(c, HandleLeft, false, 0)

	result := session.Update(3.0)

	assert.InDelta(t, 0.0, result.Position, 1e-9)
	assert.InDelta(t, 0.0, result.Start, 1e-9)
	assert.InDelta(t, 4.0, result.End, 1e-9)
}

func TestLeftHandleTrimHitsZeroSingleImageClip(t *testing.T) {
	c := &project.Clip{Position: 2.0, Start: 1.0, End: 5.0, Reader: project.ReaderInfo{HasSingleImage: true}}
	session := BeginResize(c, HandleLeft, false, 0)

	result := session.Update(3.0)

	assert.InDelta(t, 0.0, result.Position, 1e-9)
	assert.InDelta(t, 0.0, result.Start, 1e-9)
	assert.InDelta(t, 5.0, result.End, 1e-9, "single-image overflow extends duration instead of shrinking end")
}

func TestRightHandleTrimClampsToReaderDuration(t *testing.T) {
	c := &project.Clip{Start: 1.0, End: 4.0, Reader: project.ReaderInfo{Duration: 6.0}}
	session := BeginResize(c, HandleRight, false, c.Reader.Duration)

	result := session.Update(10.0)

	assert.InDelta(t, 7.0, result.End, 1e-9, "clamped to start + readerDuration")
}

func TestMissingTransitionProposalOnOverlap(t *testing.T) {
	p := &project.Project{
		Clips: []*project.Clip{
			{ID: "a", Layer: 1, Position: 0, Start: 0, End: 5},
			{ID: "b", Layer: 1, Position: 4, Start: 0, End: 6},
		},
	}

	proposal := ProposeMissingTransition(p, p.ClipByID("b"))

	require.NotNil(t, proposal)
	assert.Equal(t, 1, proposal.Layer)
	assert.InDelta(t, 4.0, proposal.Position, 1e-9)
	assert.InDelta(t, 0.0, proposal.Start, 1e-9)
	assert.InDelta(t, 1.0, proposal.End, 1e-9)
}

func TestMissingTransitionRejectsShortOverlap(t *testing.T) {
	p := &project.Project{
		Clips: []*project.Clip{
			{ID: "a", Layer: 1, Position: 0, Start: 0, End: 5},
			{ID: "b", Layer: 1, Position: 4.8, Start: 0, End: 6},
		},
	}
	assert.Nil(t, ProposeMissingTransition(p, p.ClipByID("b")), "overlap under 0.5s must be rejected")
}

func TestMissingTransitionRejectsCollisionWithExistingTransition(t *testing.T) {
	p := &project.Project{
		Clips: []*project.Clip{
			{ID: "a", Layer: 1, Position: 0, Start: 0, End: 5},
			{ID: "b", Layer: 1, Position: 4, Start: 0, End: 6},
		},
		Effects: []*project.Transition{
			{ID: "t1", Layer: 1, Position: 4.0, Start: 0, End: 1},
		},
	}
	assert.Nil(t, ProposeMissingTransition(p, p.ClipByID("b")))
}

func TestGroupDragRefusesLockedLayerCrossing(t *testing.T) {
	p := &project.Project{
		Layers: []*project.Layer{
			{Number: 1, Y: 60, Height: 60},
			{Number: 2, Y: 0, Height: 60, Lock: true},
		},
		Clips: []*project.Clip{{ID: "c1", Layer: 1, Position: 1, Start: 0, End: 2, Selected: true}},
	}
	ctx := &Context{Project: p, PixelsPerSecond: 100, FPS: fps24, SnapOptions: snap.Options{ThresholdPx: 5}}
	session := BeginGroupDrag(ctx, []project.TimelineItem{p.ClipByID("c1")})

	result, ok := session.Update(ctx, 0, -60, nil)

	assert.False(t, ok)
	assert.True(t, result.Refused)
}

func TestGroupDragStopSnapsToFPSGridAndAppliesPosition(t *testing.T) {
	p := &project.Project{
		Layers: []*project.Layer{{Number: 1, Y: 0, Height: 60}},
		Clips:  []*project.Clip{{ID: "c1", Layer: 1, Position: 1, Start: 0, End: 2, Selected: true}},
	}
	ctx := &Context{Project: p, PixelsPerSecond: 100, FPS: fps24, SnapOptions: snap.Options{ThresholdPx: 0}}
	session := BeginGroupDrag(ctx, []project.TimelineItem{p.ClipByID("c1")})

	result, ok := session.Update(ctx, 10, 0, nil)
	require.True(t, ok)

	commits := session.Stop(ctx, result)
	require.Len(t, commits, 1)
	assert.Equal(t, "c1", commits[0].ID)

	expected := timemath.SnapToFPSGridTime(timemath.PixelToTime(110, ctx.PixelsPerSecond), fps24)
	assert.InDelta(t, expected, commits[0].Position, 1e-9)
	assert.InDelta(t, expected, p.ClipByID("c1").Position, 1e-9, "model must be updated in place")
}

func TestKeyframeDragClampsToExclusiveRightEdge(t *testing.T) {
	frame := ProposeFrame(100.0, fps24, 0.0, 2.0) // way past clip.end=2.0
	assert.Equal(t, 48, frame, "clamped to floor(end*F), the last valid frame")
}

func TestKeyframeDragCommitRewritesMatchingFrame(t *testing.T) {
	c := &project.Clip{
		ID: "c1", Start: 0, End: 4,
		Properties: map[string]*project.PropertyTrack{
			"alpha": {Points: []project.KeyframePoint{{Co: project.Coordinate{X: 25}}, {Co: project.Coordinate{X: 1}}}},
		},
	}
	session := BeginKeyframeDrag("clip", "c1", 25)
	changed := session.Commit(c, 49)

	assert.True(t, changed)
	assert.Equal(t, 49.0, c.Properties["alpha"].Points[0].Co.X)
	assert.Equal(t, 1.0, c.Properties["alpha"].Points[1].Co.X)
}

func TestMarqueeHitsFiltersToFullyContained(t *testing.T) {
	p := &project.Project{
		Clips: []*project.Clip{
			{ID: "inside", Layer: 1, Position: 1, Start: 0, End: 2},
			{ID: "outside", Layer: 1, Position: 10, Start: 0, End: 2},
		},
	}
	rect := MarqueeRect{StartSeconds: 0, EndSeconds: 5, TopLayer: 1, BottomLayer: 1}

	clips, _ := MarqueeHits(p, rect)
	require.Len(t, clips, 1)
	assert.Equal(t, "inside", clips[0].ID)
}

func TestAutogrowRequestsResizeOnlyWhenExceeded(t *testing.T) {
	p := &project.Project{Duration: 10, Clips: []*project.Clip{{Position: 8, Start: 0, End: 4}}}
	assert.InDelta(t, DefaultMinLength, Autogrow(p, DefaultMinLength, DefaultMinPad), 1e-9, "below MIN_LEN still floors to it")

	p2 := &project.Project{Duration: 10, Clips: []*project.Clip{{Position: 5, Start: 0, End: 4}}}
	assert.Equal(t, 0.0, Autogrow(p2, DefaultMinLength, DefaultMinPad), "no growth needed, maxRight under duration")
}
