package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawSeg(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestStore() *Store {
	s := &Store{project: &Project{
		FPS:      Rational{Num: 24, Den: 1},
		Duration: 10,
		Scale:    1,
		TickPixels: 100,
		Layers: []*Layer{
			{Number: 1, Label: "V1"},
			{Number: 2, Label: "V2"},
		},
		Clips: []*Clip{
			{ID: "c1", Layer: 1, Position: 2, Start: 0, End: 5},
		},
	}}
	s.reindexLocked()
	return s
}

func TestApplyJSONDiffInsertUpdateDelete(t *testing.T) {
	s := newTestStore()

	newClip := map[string]interface{}{
		"id": "c2", "layer": 1.0, "position": 0.0, "start": 0.0, "end": 2.0,
	}
	actions := []DiffAction{
		{Type: DiffInsert, Key: []json.RawMessage{rawSeg(t, "clips")}, Value: rawSeg(t, newClip)},
	}
	require.NoError(t, s.ApplyJSONDiff(actions))

	p := s.Snapshot()
	require.Len(t, p.Clips, 2)
	assert.Equal(t, "c2", p.Clips[0].ID, "clips must be re-sorted by position after diff apply")

	// Update clip c1's label-like field via merge.
	update := []DiffAction{
		{
			Type:  DiffUpdate,
			Key:   []json.RawMessage{rawSeg(t, "clips"), rawSeg(t, map[string]string{"id": "c1"})},
			Value: rawSeg(t, map[string]interface{}{"selected": true}),
		},
	}
	require.NoError(t, s.ApplyJSONDiff(update))
	p = s.Snapshot()
	assert.True(t, p.ClipByID("c1").Selected)
	assert.Equal(t, 5.0, p.ClipByID("c1").End, "update must merge, not replace, sibling fields")
}

func TestApplyJSONDiffDeleteThenInsertRestores(t *testing.T) {
	s := newTestStore()
	before := s.Snapshot()
	clipJSON, err := json.Marshal(before.ClipByID("c1"))
	require.NoError(t, err)
	var clipValue interface{}
	require.NoError(t, json.Unmarshal(clipJSON, &clipValue))

	del := []DiffAction{
		{Type: DiffDelete, Key: []json.RawMessage{rawSeg(t, "clips"), rawSeg(t, map[string]string{"id": "c1"})}},
	}
	require.NoError(t, s.ApplyJSONDiff(del))
	assert.Nil(t, s.Snapshot().ClipByID("c1"))

	ins := []DiffAction{
		{Type: DiffInsert, Key: []json.RawMessage{rawSeg(t, "clips")}, Value: clipJSON},
	}
	require.NoError(t, s.ApplyJSONDiff(ins))

	after := s.Snapshot()
	restored := after.ClipByID("c1")
	require.NotNil(t, restored)
	assert.Equal(t, before.ClipByID("c1").Position, restored.Position)
	assert.Equal(t, before.ClipByID("c1").Start, restored.Start)
	assert.Equal(t, before.ClipByID("c1").End, restored.End)
}

func TestApplyJSONDiffUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore()
	actions := []DiffAction{
		{
			Type:  DiffUpdate,
			Key:   []json.RawMessage{rawSeg(t, "clips"), rawSeg(t, map[string]string{"id": "does-not-exist"})},
			Value: rawSeg(t, map[string]interface{}{"selected": true}),
		},
	}
	require.NoError(t, s.ApplyJSONDiff(actions))
	assert.Len(t, s.Snapshot().Clips, 1)
}

func TestReindexAssignsLayerY(t *testing.T) {
	s := newTestStore()
	p := s.Snapshot()
	// Layer 2 (higher number) renders above layer 1: it should come
	// first in Y order.
	l2 := p.LayerByNumber(2)
	l1 := p.LayerByNumber(1)
	assert.Less(t, l2.Y, l1.Y)
}

func TestCheckInvariants(t *testing.T) {
	p := &Project{
		Layers: []*Layer{{Number: 1}},
		Clips:  []*Clip{{ID: "bad", Layer: 1, Start: 5, End: 1, Position: -1}},
	}
	errs := CheckInvariants(p)
	assert.NotEmpty(t, errs)
}
