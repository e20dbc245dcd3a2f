package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
)

var fps24 = timemath.FPS{Num: 24, Den: 1}

func drainOutbound(b *Bridge) []Outbound {
	var out []Outbound
	for {
		select {
		case o := <-b.Outbound:
			out = append(out, o)
		default:
			return out
		}
	}
}

func TestDispatchGroupDragMovesAndCommitsClip(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1", Layer: 1, Position: 1, Start: 0, End: 2})
	})

	b.Dispatch(InboundFrame{Method: "startManualMove", Params: mustJSON(t, map[string]interface{}{
		"type": "clip", "ids": []string{"c1"},
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "moveItem", Params: mustJSON(t, map[string]interface{}{
		"x": 10.0, "y": 0.0,
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "updateRecentItemJSON", Params: mustJSON(t, map[string]interface{}{
		"type": "clip", "ids": []string{"c1"}, "tx_id": "",
	})}, fps24)

	expected := timemath.SnapToFPSGridTime(timemath.PixelToTime(110, 100), fps24)
	var position float64
	var layer int
	b.Store.View(func(p *project.Project) {
		position = p.ClipByID("c1").Position
		layer = p.ClipByID("c1").Layer
	})
	assert.InDelta(t, expected, position, 1e-9)
	assert.Equal(t, 1, layer)

	out := drainOutbound(b)
	require.NotEmpty(t, out)
	assert.Equal(t, "update_clip_data", out[len(out)-1].Method)
}

func TestDispatchSelectRoutesThroughSelectionPackage(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1", Layer: 1})
	})

	b.Dispatch(InboundFrame{Method: "select", Params: mustJSON(t, map[string]interface{}{
		"item_id": "c1", "kind": "clip",
	})}, fps24)

	var selected bool
	b.Store.View(func(p *project.Project) { selected = p.ClipByID("c1").Selected })
	assert.True(t, selected)

	out := drainOutbound(b)
	require.NotEmpty(t, out)
	assert.Equal(t, "addSelection", out[0].Method)
}

func TestDispatchResizeGestureTrimsLeftHandle(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1", Position: 2.0, Start: 1.0, End: 5.0})
	})

	b.Dispatch(InboundFrame{Method: "beginResize", Params: mustJSON(t, map[string]interface{}{
		"clip_id": "c1", "handle": "left",
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "resizeDelta", Params: mustJSON(t, map[string]interface{}{
		"delta_seconds": 3.0,
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "endResize"}, fps24)

	var c *project.Clip
	b.Store.View(func(p *project.Project) { c = p.ClipByID("c1") })
	assert.InDelta(t, 0.0, c.Position, 1e-9)
	assert.InDelta(t, 0.0, c.Start, 1e-9)
	assert.InDelta(t, 4.0, c.End, 1e-9)

	out := drainOutbound(b)
	require.NotEmpty(t, out)
	assert.Equal(t, "update_clip_data", out[len(out)-1].Method)
}

func TestDispatchKeyframeDragRewritesMatchingFrame(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{
			ID: "c1", Start: 0, End: 4,
			Properties: map[string]*project.PropertyTrack{
				"alpha": {Points: []project.KeyframePoint{{Co: project.Coordinate{X: 25}}, {Co: project.Coordinate{X: 1}}}},
			},
		})
	})

	b.Dispatch(InboundFrame{Method: "beginKeyframeDrag", Params: mustJSON(t, map[string]interface{}{
		"entity_kind": "clip", "entity_id": "c1", "old_frame": 25,
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "keyframeDragDelta", Params: mustJSON(t, map[string]interface{}{
		"candidate_seconds": 100.0,
	})}, fps24)
	b.Dispatch(InboundFrame{Method: "endKeyframeDrag"}, fps24)

	var c *project.Clip
	b.Store.View(func(p *project.Project) { c = p.ClipByID("c1") })
	assert.Equal(t, 96.0, c.Properties["alpha"].Points[0].Co.X, "clamped to the last valid frame before end")
	assert.Equal(t, 1.0, c.Properties["alpha"].Points[1].Co.X, "non-matching point untouched")

	out := drainOutbound(b)
	require.Len(t, out, 3)
	assert.Equal(t, "StartKeyframeDrag", out[0].Method)
	assert.Equal(t, "update_clip_data", out[1].Method)
	assert.Equal(t, "FinalizeKeyframeDrag", out[2].Method)
}

func TestSetScaleAppliesAnchorToScrollPosition(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Duration = 100
		p.Scale = 1
		p.TickPixels = 100
	})
	b.SetScroll(0.2)

	anchor := b.SetScale(2.0, 500)
	assert.InDelta(t, 5.0, anchor, 1e-9)
	assert.InDelta(t, 0.35, b.ScrollNormalized, 1e-9, "recentring must move scroll, not leave it untouched")
}

func TestGroupDragSnapsToSelectedTransitionKeyframe(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1", Layer: 1, Position: 1, Start: 0, End: 2})
		// Selected, so its keyframes become snap targets: frame 25 at
		// 24fps sits one second into the transition, 6.0s on the
		// timeline, away from either edge (5.0s / 8.0s).
		p.Effects = append(p.Effects, &project.Transition{
			ID: "t1", Layer: 1, Position: 5, Start: 0, End: 3, Selected: true,
			Properties: map[string]*project.PropertyTrack{
				"alpha": {Points: []project.KeyframePoint{{Co: project.Coordinate{X: 1}}, {Co: project.Coordinate{X: 25}}}},
			},
		})
	})

	b.Dispatch(InboundFrame{Method: "startManualMove", Params: mustJSON(t, map[string]interface{}{
		"type": "clip", "ids": []string{"c1"},
	})}, fps24)
	drainOutbound(b)

	// Right edge lands at 595px, 5px short of the keyframe at 600px.
	b.Dispatch(InboundFrame{Method: "moveItem", Params: mustJSON(t, map[string]interface{}{
		"x": 295.0, "y": 0.0,
	})}, fps24)

	out := drainOutbound(b)
	require.NotEmpty(t, out)
	assert.Equal(t, "showSnapline", out[0].Method)
	assert.InDelta(t, 600.0, out[0].Params.(float64), 1e-9)

	b.Dispatch(InboundFrame{Method: "updateRecentItemJSON", Params: mustJSON(t, map[string]interface{}{
		"type": "clip", "ids": []string{"c1"},
	})}, fps24)

	var position float64
	b.Store.View(func(p *project.Project) { position = p.ClipByID("c1").Position })
	assert.InDelta(t, 4.0, position, 1e-9, "snap-corrected move lands the right edge on the keyframe")
}
