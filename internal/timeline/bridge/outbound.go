package bridge

import "timelinehost/internal/timeline/selection"

// The following methods implement every engine->host call as a typed
// wrapper over emit. Bridge itself satisfies selection.Host so the
// selection package can report AddSelection/RemoveSelection/
// RazorSliceAtCursor directly without an adapter.

func (b *Bridge) AddSelection(id string, kind selection.Kind, forceClearOthers bool) {
	b.emit("addSelection", map[string]interface{}{"id": id, "type": kind, "force_clear_others": forceClearOthers})
}

func (b *Bridge) RemoveSelection(id string, kind selection.Kind) {
	b.emit("removeSelection", map[string]interface{}{"id": id, "type": kind})
}

func (b *Bridge) RazorSliceAtCursor(clipID, transitionID string, cursorSeconds float64) {
	b.emit("RazorSliceAtCursor", map[string]interface{}{"clip_id": clipID, "transition_id": transitionID, "cursor_seconds": cursorSeconds})
}

// UpdateClipData reports a committed clip mutation.
func (b *Bridge) UpdateClipData(clipJSON interface{}, allowKeyframes, forceJSONDiff, ignoreRefresh bool, transactionID string) {
	b.emit("update_clip_data", map[string]interface{}{
		"json": clipJSON, "allow_keyframes": allowKeyframes, "force_json_diff": forceJSONDiff,
		"ignore_refresh": ignoreRefresh, "transaction_id": transactionID,
	})
}

// UpdateTransitionData reports a committed transition mutation.
func (b *Bridge) UpdateTransitionData(transitionJSON interface{}, forceJSONDiff, ignoreRefresh bool, transactionID string) {
	b.emit("update_transition_data", map[string]interface{}{
		"json": transitionJSON, "force_json_diff": forceJSONDiff,
		"ignore_refresh": ignoreRefresh, "transaction_id": transactionID,
	})
}

func (b *Bridge) StartKeyframeDrag(entityKind, id, txID string) {
	b.emit("StartKeyframeDrag", map[string]interface{}{"type": entityKind, "id": id, "tx_id": txID})
}

func (b *Bridge) FinalizeKeyframeDrag(entityKind, id string) {
	b.emit("FinalizeKeyframeDrag", map[string]interface{}{"type": entityKind, "id": id})
}

func (b *Bridge) RetimeClip(id string, end, position float64) {
	b.emit("RetimeClip", map[string]interface{}{"id": id, "end": end, "position": position})
}

func (b *Bridge) SeekToKeyframe(frame int) {
	b.emit("SeekToKeyframe", frame)
}

func (b *Bridge) PlayheadMoved(frame int) {
	b.emit("PlayheadMoved", frame)
}

func (b *Bridge) PreviewClipFrame(clipID string, frame int) {
	b.emit("PreviewClipFrame", map[string]interface{}{"clip_id": clipID, "frame": frame})
}

func (b *Bridge) PageReady() {
	b.emit("page_ready", nil)
}

func (b *Bridge) QtLog(level, msg string) {
	b.emit("qt_log", map[string]interface{}{"level": level, "msg": msg})
}

func (b *Bridge) ResizeTimeline(seconds float64) {
	b.emit("resizeTimeline", seconds)
}

func (b *Bridge) AddMissingTransition(proposalJSON interface{}) {
	b.emit("add_missing_transition", proposalJSON)
}

// ShowSnapline and HideSnapline drive the vertical snap guide the
// client view draws while a snapped move is in flight. Every
// drag-stop hides it.
func (b *Bridge) ShowSnapline(px float64) { b.emit("showSnapline", px) }
func (b *Bridge) HideSnapline()           { b.emit("hideSnapline", nil) }

func (b *Bridge) ShowClipMenu(clipID string)             { b.emit("ShowClipMenu", clipID) }
func (b *Bridge) ShowEffectMenu(effectID string)         { b.emit("ShowEffectMenu", effectID) }
func (b *Bridge) ShowTransitionMenu(transitionID string) { b.emit("ShowTransitionMenu", transitionID) }
func (b *Bridge) ShowTrackMenu(layerNumber int)          { b.emit("ShowTrackMenu", layerNumber) }
func (b *Bridge) ShowMarkerMenu(markerID string)         { b.emit("ShowMarkerMenu", markerID) }
func (b *Bridge) ShowPlayheadMenu()                      { b.emit("ShowPlayheadMenu", nil) }

func (b *Bridge) ShowTimelineMenu(cursorSeconds float64, layerNumber int) {
	b.emit("ShowTimelineMenu", map[string]interface{}{"cursor_seconds": cursorSeconds, "layer_number": layerNumber})
}
