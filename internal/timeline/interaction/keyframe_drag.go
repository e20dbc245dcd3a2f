package interaction

import (
	"timelinehost/internal/timeline/keyframe"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
)

// KeyframeDragSession captures the frame a keyframe drag started on
//. EntityKind is "clip" or "transition".
type KeyframeDragSession struct {
	TxID       string
	EntityID   string
	EntityKind string
	OldFrame   int
}

// BeginKeyframeDrag mints a transaction ID and records the starting
// frame; callers report StartKeyframeDrag(entityKind, entityID, txID)
// to the host immediately after.
func BeginKeyframeDrag(entityKind, entityID string, oldFrame int) *KeyframeDragSession {
	return &KeyframeDragSession{TxID: NewTransactionID(), EntityID: entityID, EntityKind: entityKind, OldFrame: oldFrame}
}

// ProposeFrame converts a pointer-derived candidate seconds value into
// a clamped, FPS-snapped candidate frame: snapped to the grid, then
// clamped to [clip.start, clip.end - 1/F) so the last valid frame is
// floor(end*F).
func ProposeFrame(candidateSeconds float64, fps timemath.FPS, clipStart, clipEnd float64) int {
	snapped := timemath.SnapToFPSGridTime(candidateSeconds, fps)
	frame := int(snapped*fps.Value()) + 1

	startFrame := int(clipStart*fps.Value()) + 1
	endFrameExclusive := int(clipEnd*fps.Value()) + 1
	return keyframe.ClampFrame(frame, startFrame, endFrameExclusive)
}

// Commit rewrites every matching point from s.OldFrame to newFrame
// across entity's property tracks and nested effects, returning
// whether a rewrite actually happened (the original frame differed).
// Callers emit update_clip_data/update_transition_data with
// allow_keyframes=false, force_json_diff=true, then
// FinalizeKeyframeDrag(s.EntityKind, s.EntityID).
func (s *KeyframeDragSession) Commit(entity project.KeyframeSource, newFrame int) bool {
	if newFrame == s.OldFrame {
		return false
	}
	keyframe.CommitFrameRewrite(entity, s.OldFrame, newFrame)
	return true
}
