package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timelinehost/internal/timeline/project"
)

type fakeHost struct {
	added   []string
	removed []string
	razor   []string
}

func (f *fakeHost) AddSelection(id string, kind Kind, forceClearOthers bool) {
	f.added = append(f.added, id)
}
func (f *fakeHost) RemoveSelection(id string, kind Kind) {
	f.removed = append(f.removed, id)
}
func (f *fakeHost) RazorSliceAtCursor(clipID, transitionID string, cursorSeconds float64) {
	f.razor = append(f.razor, clipID+"|"+transitionID)
}

func threeClipProject() *project.Project {
	return &project.Project{
		Layers: []*project.Layer{{Number: 1}},
		Clips: []*project.Clip{
			{ID: "c1", Layer: 1, Position: 0, Start: 0, End: 1},
			{ID: "c2", Layer: 1, Position: 2, Start: 0, End: 1},
			{ID: "c3", Layer: 1, Position: 4, Start: 0, End: 1},
		},
	}
}

func TestSelectDefaultTogglesOnCtrl(t *testing.T) {
	p := threeClipProject()
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "c1", Kind: KindClip}, host, &last)
	assert.True(t, p.ClipByID("c1").Selected)
	assert.Equal(t, []string{"c1"}, host.added)
	assert.True(t, last.Valid)

	Select(p, Input{ItemID: "c1", Kind: KindClip, Ctrl: true}, host, &last)
	assert.False(t, p.ClipByID("c1").Selected)
	assert.Equal(t, []string{"c1"}, host.removed)
}

func TestSelectClearsOnEmptyID(t *testing.T) {
	p := threeClipProject()
	p.Clips[0].Selected = true
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "", Kind: KindClip, ClearSelections: true}, host, &last)
	assert.False(t, p.Clips[0].Selected)
	assert.Equal(t, []string{"c1"}, host.removed)
}

func TestSelectSkipsWhileDragging(t *testing.T) {
	p := threeClipProject()
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "c1", Kind: KindClip, Dragging: true}, host, &last)
	assert.False(t, p.ClipByID("c1").Selected)
	assert.False(t, last.Valid)
}

func TestSelectRazorModeDoesNotSelect(t *testing.T) {
	p := threeClipProject()
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "c1", Kind: KindClip, RazorMode: true, CursorSeconds: 1.5}, host, &last)
	assert.False(t, p.ClipByID("c1").Selected)
	assert.Equal(t, []string{"c1|"}, host.razor)
}

func TestRippleSelectsSameLayerFromAnchorForward(t *testing.T) {
	p := threeClipProject()
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "c2", Kind: KindClip, Alt: true}, host, &last)
	assert.False(t, p.ClipByID("c1").Selected, "c1 is before the anchor, must not be selected")
	assert.True(t, p.ClipByID("c2").Selected)
	assert.True(t, p.ClipByID("c3").Selected)
	assert.False(t, last.Valid, "ripple must not update lastSelectedItem")
}

func TestShiftRangeSelectsBetweenAnchors(t *testing.T) {
	p := threeClipProject()
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "c1", Kind: KindClip}, host, &last)
	Select(p, Input{ItemID: "c3", Kind: KindClip, Shift: true}, host, &last)

	assert.True(t, p.ClipByID("c1").Selected)
	assert.True(t, p.ClipByID("c2").Selected)
	assert.True(t, p.ClipByID("c3").Selected)
}

func TestEffectSelectionResolvesGlobalBeforePerClip(t *testing.T) {
	p := threeClipProject()
	p.Effects = []*project.Transition{
		{ID: "t1", Layer: 1, Effects: []*project.Effect{{ID: "e1"}}},
	}
	p.Clips[0].Effects = []*project.Effect{{ID: "e1"}} // colliding ID, global must win
	host := &fakeHost{}
	var last Last

	Select(p, Input{ItemID: "e1", Kind: KindEffect}, host, &last)
	assert.True(t, p.Effects[0].Effects[0].Selected)
	assert.False(t, p.Clips[0].Effects[0].Selected)
}
