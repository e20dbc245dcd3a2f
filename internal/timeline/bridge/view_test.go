package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
)

func TestTrackLabelFormatsLayerNumber(t *testing.T) {
	b := newTestBridge()
	assert.Equal(t, "Track 3", b.TrackLabel(3))

	b.SetTrackLabel("Spur %s")
	assert.Equal(t, "Spur 7", b.TrackLabel(7))
}

func TestScrollLeftByClampsToCanvas(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Duration = 100
		p.Scale = 1
		p.TickPixels = 10 // pps=10, width=1000px
	})

	b.ScrollLeftBy(250)
	assert.InDelta(t, 0.25, b.ScrollNormalized, 1e-9)

	b.ScrollLeftBy(-9999)
	assert.InDelta(t, 0.0, b.ScrollNormalized, 1e-9)

	b.ScrollLeftBy(9999)
	assert.InDelta(t, 1.0, b.ScrollNormalized, 1e-9)
}

func TestCenterOnTimeClampsAtRightEdge(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Duration = 100
		p.Scale = 1
		p.TickPixels = 10
	})
	b.SetViewportWidth(200)

	b.CenterOnTime(50) // center px 500, scroll 400 of 1000
	assert.InDelta(t, 0.4, b.ScrollNormalized, 1e-9)

	b.CenterOnTime(99) // would overshoot; clamp to width-viewport=800
	assert.InDelta(t, 0.8, b.ScrollNormalized, 1e-9)

	b.CenterOnTime(0)
	assert.InDelta(t, 0.0, b.ScrollNormalized, 1e-9)
}

func TestCenterOnPlayheadUsesPlayheadPosition(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Duration = 100
		p.Scale = 1
		p.TickPixels = 10
		p.PlayheadPosition = 50
	})
	b.SetViewportWidth(200)

	b.CenterOnPlayhead()
	assert.InDelta(t, 0.4, b.ScrollNormalized, 1e-9)
}

func TestMovePlayheadToFrame(t *testing.T) {
	b := newTestBridge()
	fps := timemath.FPS{Num: 24, Den: 1}

	b.MovePlayheadToFrame(49, fps)
	var playhead float64
	b.Store.View(func(p *project.Project) { playhead = p.PlayheadPosition })
	assert.InDelta(t, 2.0, playhead, 1e-9)

	b.MovePlayheadToFrame(0, fps) // clamps to frame 1
	b.Store.View(func(p *project.Project) { playhead = p.PlayheadPosition })
	assert.InDelta(t, 0.0, playhead, 1e-9)
}

func TestUpdateThumbnailEmitsCacheBustedURL(t *testing.T) {
	b := newTestBridge()
	b.SetThumbAddress("http://thumbs/")
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{
			ID: "c1", FileID: "f1", Layer: 1, Start: 2.0, End: 4.0,
			Reader: project.ReaderInfo{FPS: project.Rational{Num: 24, Den: 1}},
		})
	})
	drainOutbound(b)

	b.UpdateThumbnail("c1")
	out := drainOutbound(b)
	require.Len(t, out, 1)
	assert.Equal(t, "updateThumbnail", out[0].Method)
	params := out[0].Params.(map[string]interface{})
	assert.Equal(t, "c1", params["clip_id"])
	assert.Contains(t, params["url"].(string), "http://thumbs/f1/49/?")

	b.UpdateThumbnail("nope")
	assert.Empty(t, drainOutbound(b), "unknown clip id is a no-op")
}

func TestReDrawAllAudioDataSkipsSilentClips(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips,
			&project.Clip{ID: "a", Reader: project.ReaderInfo{HasAudio: true}, UI: project.ClipUI{AudioData: []float64{0.1, 0.2}}},
			&project.Clip{ID: "v", Reader: project.ReaderInfo{HasVideo: true}},
		)
	})
	drainOutbound(b)

	b.ReDrawAllAudioData()
	out := drainOutbound(b)
	require.Len(t, out, 1)
	assert.Equal(t, "redrawAudio", out[0].Method)
	assert.Equal(t, "a", out[0].Params.(map[string]interface{})["clip_id"])
}

func TestRefreshTimelinePushesSnapshot(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1"})
	})
	drainOutbound(b)

	b.RefreshTimeline()
	out := drainOutbound(b)
	require.Len(t, out, 1)
	assert.Equal(t, "refreshTimeline", out[0].Method)
	snap := out[0].Params.(*project.Project)
	require.Len(t, snap.Clips, 1)
	assert.Equal(t, "c1", snap.Clips[0].ID)
}

func TestSetThemeInstallsAndForwards(t *testing.T) {
	b := newTestBridge()
	drainOutbound(b)

	b.SetThemeColors(map[string]string{"--clip": "#336699"})
	b.SetTheme(".clip { fill: #336699 }")

	assert.Equal(t, "#336699", b.ThemeColors["--clip"])
	assert.Contains(t, b.ThemeCSS, "fill")

	out := drainOutbound(b)
	require.Len(t, out, 2)
	assert.Equal(t, "setThemeColors", out[0].Method)
	assert.Equal(t, "setTheme", out[1].Method)
}
