package boundingbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/snap"
)

func testProject() *project.Project {
	return &project.Project{
		Duration: 60,
		Layers: []*project.Layer{
			{Number: 1, Label: "V1", Y: 60, Height: 60},
			{Number: 2, Label: "V2", Y: 0, Height: 60, Lock: true},
		},
		Clips: []*project.Clip{
			{ID: "c1", Layer: 1, Position: 1, Start: 0, End: 2, Selected: true},
		},
	}
}

func TestBuildEnclosesSelection(t *testing.T) {
	p := testProject()
	pps := 100.0
	c1 := p.ClipByID("c1")

	box := Build(p, pps, []project.TimelineItem{c1})

	assert.Equal(t, 100.0, box.Left)
	assert.Equal(t, 300.0, box.Right)
	assert.Equal(t, 60.0, box.Top)
	assert.Equal(t, 120.0, box.Bottom)
	require.Len(t, box.Elements, 1)
	assert.Equal(t, "c1", box.Elements[0].ID)
}

func TestProposeMoveRefusesCrossIntoLockedLayer(t *testing.T) {
	p := testProject()
	pps := 100.0
	c1 := p.ClipByID("c1")
	box := Build(p, pps, []project.TimelineItem{c1})

	// Layer 2 (locked) occupies Y [0,60); moving up by 60px sweeps into it.
	result := box.ProposeMove(10, -60, p, pps, snap.Options{ThresholdPx: 5}, nil)

	assert.True(t, result.Refused)
	assert.Nil(t, result.NewX)
	assert.Nil(t, result.NewLayer)
}

func TestProposeMoveAppliesSnapCorrectedDelta(t *testing.T) {
	p := testProject()
	pps := 100.0
	c1 := p.ClipByID("c1")
	box := Build(p, pps, []project.TimelineItem{c1})

	// Move the box right by 6px; the right edge (300px -> 306px) lands
	// within 5px of the timeline end at 304px, so snap should pull the
	// move back to 4px (left edge 100 -> 104, right edge exactly on 304).
	p.Duration = 3.04

	result := box.ProposeMove(6, 0, p, pps, snap.Options{ThresholdPx: 5}, nil)

	require.False(t, result.Refused)
	assert.True(t, result.Snapped)
	assert.InDelta(t, 104.0, result.NewX["c1"], 1e-9,"snap should correct the move so the right edge lands on the timeline end")
}

func TestProposeMoveWithoutVerticalChangeKeepsLayer(t *testing.T) {
	p := testProject()
	pps := 100.0
	c1 := p.ClipByID("c1")
	box := Build(p, pps, []project.TimelineItem{c1})

	result := box.ProposeMove(50, 0, p, pps, snap.Options{ThresholdPx: 0}, nil)

	require.False(t, result.Refused)
	assert.Equal(t, 1, result.NewLayer["c1"])
	assert.InDelta(t, 150.0, result.NewX["c1"], 1e-9)
}
