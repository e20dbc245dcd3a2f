package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/selection"
	"timelinehost/internal/timeline/timemath"
)

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestBridge() *Bridge {
	store := project.NewStore()
	return New(store)
}

func TestThumbnailURLFormat(t *testing.T) {
	url := ThumbnailURL("http://thumbs/", "file1", 24.0, 2.0)
	assert.Contains(t, url, "http://thumbs/file1/49/?")
}

func TestSetScaleAnchorsToCursorWhenPositive(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Scale = 1
		p.TickPixels = 100
	})

	anchor := b.SetScale(2.0, 200) // 200px at pps=100 -> 2.0s
	assert.InDelta(t, 2.0, anchor, 1e-9)

	var newScale float64
	b.Store.View(func(p *project.Project) { newScale = p.Scale })
	assert.Equal(t, 2.0, newScale)
}

func TestSetScaleFallsBackToPlayheadThenLeftEdge(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Duration = 60
		p.PlayheadPosition = 5.0
	})

	anchor := b.SetScale(1.5, 0)
	assert.InDelta(t, 5.0, anchor, 1e-9, "falls back to playhead when cursorX<=0")

	b.Store.Mutate(func(p *project.Project) { p.PlayheadPosition = -1 })
	anchor = b.SetScale(1.5, -10)
	assert.InDelta(t, 0.0, anchor, 1e-9, "falls back to left edge when playhead is not visible")
}

func TestDispatchApplyJSONDiffUpdatesStore(t *testing.T) {
	b := newTestBridge()
	b.Store.Mutate(func(p *project.Project) {
		p.Clips = append(p.Clips, &project.Clip{ID: "c1", Layer: 1, Position: 0, Start: 0, End: 1})
	})

	frame := InboundFrame{
		Method: "applyJsonDiff",
		Params: mustJSON(t, map[string]interface{}{
			"actions": []map[string]interface{}{
				{
					"type":  "update",
					"key":   []interface{}{"clips", map[string]string{"id": "c1"}},
					"value": map[string]interface{}{"selected": true},
				},
			},
		}),
	}
	b.Dispatch(frame, timemath.FPS{Num: 24, Den: 1})

	var selected bool
	b.Store.View(func(p *project.Project) { selected = p.ClipByID("c1").Selected })
	assert.True(t, selected)
}

func TestBridgeSatisfiesSelectionHostAndEmitsOutbound(t *testing.T) {
	b := newTestBridge()
	var host selection.Host = b

	host.AddSelection("c1", selection.KindClip, false)

	select {
	case out := <-b.Outbound:
		assert.Equal(t, "addSelection", out.Method)
	default:
		require.Fail(t, "expected an outbound call to be emitted")
	}
}
