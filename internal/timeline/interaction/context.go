// Package interaction implements the direct-manipulation engine
//: clip/transition drag and resize, keyframe drag, the
// overlap-to-missing-transition proposal, and marquee selection. Per
// the Design Note, the scattered globals of the original engine
// (bounding_box, dragLoc, start_clips, move_clips, ...) are
// consolidated into the explicit Context/GroupDragSession pair below,
// threaded through every handler instead of held at package scope.
package interaction

import (
	"github.com/google/uuid"

	"timelinehost/internal/timeline/boundingbox"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/snap"
	"timelinehost/internal/timeline/timemath"
)

// Context carries the ambient settings a gesture needs: the project
// being edited, the current pixel scale, snap behaviour, and the mode
// flags the host sets via setRazorMode/setTimingMode.
type Context struct {
	Project         *project.Project
	PixelsPerSecond float64
	FPS             timemath.FPS
	SnapOptions     snap.Options
	RazorMode       bool
	TimingMode      bool
}

// NewTransactionID returns a fresh opaque transaction ID threaded
// through every outbound call a single gesture makes.
func NewTransactionID() string {
	return uuid.NewString()
}

// GroupDragSession is the consolidated bounding-box group-move gesture
// state. It replaces the original engine's
// bounding_box/start_clips/move_clips globals with one value whose
// lifetime is the gesture.
type GroupDragSession struct {
	TxID string
	Box  *boundingbox.Box
}

// BeginGroupDrag builds the bounding box for items and mints a
// transaction ID for the gesture about to start.
func BeginGroupDrag(ctx *Context, items []project.TimelineItem) *GroupDragSession {
	return &GroupDragSession{
		TxID: NewTransactionID(),
		Box:  boundingbox.Build(ctx.Project, ctx.PixelsPerSecond, items),
	}
}

// Moved is one entity's proposed new pixel/layer position during a
// group drag update.
type Moved struct {
	ID     string
	Kind   string
	XPixel float64
	Layer  int
}

// Update proposes moving the drag by (dx, dy) pixels and returns the
// per-element result. Refused moves (locked-layer collision) return
// ok=false and must not mutate the model.
func (s *GroupDragSession) Update(ctx *Context, dx, dy float64, extraSnapTargets []snap.Target) (result boundingbox.MoveResult, ok bool) {
	result = s.Box.ProposeMove(dx, dy, ctx.Project, ctx.PixelsPerSecond, ctx.SnapOptions, extraSnapTargets)
	return result, !result.Refused
}

// CommittedMove is the final, FPS-snapped seconds/layer for one moved
// entity, applied to the model and reported to the host at drag-stop.
type CommittedMove struct {
	ID       string
	Kind     string
	Position float64
	Layer    int
}

// Stop quantises a group drag's final pixel positions to the FPS grid,
// applies them to the model, and returns the commits the caller must
// forward to the host as update_clip_data/update_transition_data
// calls sharing s.TxID.
func (s *GroupDragSession) Stop(ctx *Context, result boundingbox.MoveResult) []CommittedMove {
	var commits []CommittedMove
	for _, el := range s.Box.Elements {
		xPx, ok := result.NewX[el.ID]
		if !ok {
			continue
		}
		layerNum := result.NewLayer[el.ID]
		seconds := timemath.SnapToFPSGridTime(timemath.PixelToTime(xPx, ctx.PixelsPerSecond), ctx.FPS)

		switch el.Kind {
		case "clip":
			if c := ctx.Project.ClipByID(el.ID); c != nil {
				c.Position = seconds
				c.Layer = layerNum
			}
		case "transition":
			if tr := ctx.Project.TransitionByID(el.ID); tr != nil {
				tr.Position = seconds
				tr.Layer = layerNum
			}
		}

		commits = append(commits, CommittedMove{ID: el.ID, Kind: el.Kind, Position: seconds, Layer: layerNum})
	}
	return commits
}
