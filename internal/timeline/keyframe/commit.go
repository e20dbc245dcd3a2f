package keyframe

import (
	"math"

	"timelinehost/internal/timeline/project"
)

// CommitFrameRewrite walks every property track on entity (including
// its nested/transition-level effects and color channels) and
// rewrites any point at oldFrame to newFrame.
func CommitFrameRewrite(entity project.KeyframeSource, oldFrame, newFrame int) {
	for _, track := range entity.PropertyTracks() {
		rewriteTrack(track, oldFrame, newFrame)
	}
	for _, eff := range entity.NestedEffects() {
		for _, track := range eff.Properties {
			rewriteTrack(track, oldFrame, newFrame)
		}
	}
}

func rewriteTrack(t *project.PropertyTrack, oldFrame, newFrame int) {
	if t == nil {
		return
	}
	for i := range t.Points {
		if int(math.Round(t.Points[i].Co.X)) == oldFrame {
			t.Points[i].Co.X = float64(newFrame)
		}
	}
	rewriteTrack(t.Red, oldFrame, newFrame)
	rewriteTrack(t.Green, oldFrame, newFrame)
	rewriteTrack(t.Blue, oldFrame, newFrame)
}

// ClampFrame clamps a candidate keyframe-drag frame to
// [startFrame, endFrame-1] (exclusive right edge: the last valid
// drag": "clamps to [clip.start, clip.end - 1/F]").
func ClampFrame(frame, startFrame, endFrameExclusive int) int {
	if frame < startFrame {
		return startFrame
	}
	if frame > endFrameExclusive-1 {
		return endFrameExclusive - 1
	}
	return frame
}
