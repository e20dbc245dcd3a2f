package bridge

import (
	"timelinehost/internal/timeline/boundingbox"
	"timelinehost/internal/timeline/interaction"
	"timelinehost/internal/timeline/keyframe"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/selection"
	"timelinehost/internal/timeline/snap"
	"timelinehost/internal/timeline/timemath"
)

// defaultSnapThresholdPx is the pixel radius the snap engine searches
// within when SnappingMode is on. There is exactly one gesture
// in flight per connection, so this and the other gesture state
// below live directly on Bridge rather than behind a session map.
const defaultSnapThresholdPx = 10.0

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureGroupDrag
	gestureResize
	gestureKeyframeDrag
)

type groupDragGesture struct {
	session      *interaction.GroupDragSession
	ignored      map[string]bool
	singleClipID string
	last         boundingbox.MoveResult
}

type resizeGesture struct {
	session *interaction.ResizeSession
	clipID  string
	txID    string
	last    interaction.ResizeResult
}

type keyframeDragGesture struct {
	session      *interaction.KeyframeDragSession
	clipID       string
	transitionID string
	candidate    int
}

// gestureState holds the single in-flight direct-manipulation gesture
// for this connection, guarded by Bridge.mu like every other mode
// field. Only one of its pointer fields is non-nil at a time.
type gestureState struct {
	kind      gestureKind
	groupDrag *groupDragGesture
	resize    *resizeGesture
	kfDrag    *keyframeDragGesture
}

// interactionContext builds the ambient gesture settings from the
// project under edit plus the current mode flags. ignored excludes the
// gesture's own items from the snap scan.
func (b *Bridge) interactionContext(p *project.Project, fps timemath.FPS, ignored map[string]bool) *interaction.Context {
	b.mu.Lock()
	threshold := 0.0
	if b.SnappingMode {
		threshold = b.SnapThresholdPx
	}
	razor := b.RazorMode
	timing := b.TimingMode
	b.mu.Unlock()

	return &interaction.Context{
		Project:         p,
		PixelsPerSecond: p.PixelsPerSecond(),
		FPS:             fps,
		SnapOptions:     snap.Options{ThresholdPx: threshold, Ignored: ignored},
		RazorMode:       razor,
		TimingMode:      timing,
	}
}

func itemsByIDs(p *project.Project, kind string, ids []string) []project.TimelineItem {
	var out []project.TimelineItem
	for _, id := range ids {
		switch kind {
		case "transition":
			if tr := p.TransitionByID(id); tr != nil {
				out = append(out, tr)
			}
		default:
			if c := p.ClipByID(id); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// StartManualMove begins a group-drag gesture over the given items
//, building the bounding box the rest of the
// gesture moves as a unit.
func (b *Bridge) StartManualMove(kind string, ids []string, fps timemath.FPS) {
	var g *groupDragGesture
	b.Store.View(func(p *project.Project) {
		items := itemsByIDs(p, kind, ids)
		if len(items) == 0 {
			return
		}

		ignored := make(map[string]bool, len(items))
		for _, it := range items {
			ignored[it.ItemID()] = true
		}

		ctx := b.interactionContext(p, fps, ignored)
		g = &groupDragGesture{
			session: interaction.BeginGroupDrag(ctx, items),
			ignored: ignored,
		}
		if kind != "transition" && len(items) == 1 {
			g.singleClipID = items[0].ItemID()
		}
	})
	if g == nil {
		return
	}

	b.mu.Lock()
	b.gesture = gestureState{kind: gestureGroupDrag, groupDrag: g}
	b.mu.Unlock()
}

// MoveItem advances the in-flight group drag by a pointer-delta
// (dx, dy) pixel pair. A refused move (locked-layer
// collision) still returns cleanly; the caller sees no model change.
func (b *Bridge) MoveItem(dx, dy float64, fps timemath.FPS) {
	b.mu.Lock()
	g := b.gesture.groupDrag
	b.mu.Unlock()
	if g == nil {
		return
	}

	b.Store.View(func(p *project.Project) {
		ctx := b.interactionContext(p, fps, g.ignored)
		result, _ := g.session.Update(ctx, dx, dy, b.keyframeSnapTargets(p, fps, g.ignored))

		b.mu.Lock()
		if b.gesture.groupDrag == g {
			b.gesture.groupDrag.last = result
		}
		b.mu.Unlock()

		if result.Snapped {
			b.ShowSnapline(result.SnapPixel)
		} else {
			b.HideSnapline()
		}
	})
}

// keyframeSnapTargets enumerates the visible keyframes of every
// selected clip and transition not taking part in the gesture and
// maps them to snap targets. Icons are irrelevant to snapping, so the
// enumeration runs without a palette.
func (b *Bridge) keyframeSnapTargets(p *project.Project, fps timemath.FPS, ignored map[string]bool) []snap.Target {
	b.mu.Lock()
	filter := b.PropertyFilter
	b.mu.Unlock()

	var targets []snap.Target
	add := func(entity project.KeyframeSource) {
		if !entity.IsSelected() || ignored[entity.ItemID()] {
			return
		}
		for frame := range keyframe.Enumerate(entity, false, false, filter, nil, fps.Value(), nil, nil) {
			targets = append(targets, snap.Target{
				Kind:     snap.TargetKeyframe,
				EntityID: entity.ItemID(),
				Seconds:  keyframe.TimelineSeconds(entity, frame, fps.Value()),
			})
		}
	}
	for _, c := range p.Clips {
		add(c)
	}
	for _, t := range p.Effects {
		add(t)
	}
	return targets
}

// UpdateRecentItemJSON finalises the in-flight group drag: positions
// are FPS-snapped and written to the model,
// update_clip_data/update_transition_data are emitted sharing the
// gesture's transaction ID, the timeline is resized if needed, and a
// drag of exactly one clip is checked for a missing transition. txID is
// honored if supplied, else the gesture's own minted ID is used (the
// host is not required to echo it back).
func (b *Bridge) UpdateRecentItemJSON(kind string, ids []string, txID string, fps timemath.FPS) {
	b.mu.Lock()
	g := b.gesture.groupDrag
	b.mu.Unlock()
	if g == nil {
		return
	}
	if txID == "" {
		txID = g.session.TxID
	}

	b.HideSnapline()
	b.Store.Mutate(func(p *project.Project) {
		ctx := b.interactionContext(p, fps, g.ignored)
		commits := g.session.Stop(ctx, g.last)

		for _, c := range commits {
			switch c.Kind {
			case "clip":
				if clip := p.ClipByID(c.ID); clip != nil {
					b.UpdateClipData(clip, true, true, false, txID)
				}
			case "transition":
				if tr := p.TransitionByID(c.ID); tr != nil {
					b.UpdateTransitionData(tr, true, false, txID)
				}
			}
		}

		if g.singleClipID != "" {
			if moved := p.ClipByID(g.singleClipID); moved != nil {
				if proposal := interaction.ProposeMissingTransition(p, moved); proposal != nil {
					b.AddMissingTransition(proposal)
				}
			}
		}

		b.autogrowLocked(p)
	})

	b.mu.Lock()
	b.gesture = gestureState{}
	b.mu.Unlock()
}

// autogrowLocked runs the timeline-resize check and, if the
// timeline needs to grow, applies it to p and reports resizeTimeline.
// Callers must already be inside a Store.Mutate closure over p.
func (b *Bridge) autogrowLocked(p *project.Project) {
	b.mu.Lock()
	minLength, minPad := b.MinTimelineLength, b.MinTimelinePad
	b.mu.Unlock()
	if target := interaction.Autogrow(p, minLength, minPad); target > 0 {
		p.Duration = target
		b.ResizeTimeline(target)
	}
}

func hasTimeCurve(c *project.Clip) bool {
	t := c.Properties["time"]
	return t.HasMultiplePoints()
}

// BeginResize starts a trim/retime gesture on a clip's left or right
// handle. Mode is retime when the host's timing-mode flag is on and
// trim otherwise; a clip that already carries a time curve only lifts
// the duration cap.
func (b *Bridge) BeginResize(clipID string, handle interaction.Handle, fps timemath.FPS) {
	b.mu.Lock()
	timingMode := b.TimingMode
	b.mu.Unlock()

	var g *resizeGesture
	b.Store.View(func(p *project.Project) {
		c := p.ClipByID(clipID)
		if c == nil {
			return
		}

		maxDuration := c.Reader.Duration
		if timingMode || hasTimeCurve(c) {
			maxDuration = 0
		}

		g = &resizeGesture{
			session: interaction.BeginResize(c, handle, timingMode, maxDuration),
			clipID:  clipID,
			txID:    interaction.NewTransactionID(),
		}
	})
	if g == nil {
		return
	}

	b.mu.Lock()
	b.gesture = gestureState{kind: gestureResize, resize: g}
	b.mu.Unlock()
}

// UpdateResize advances the in-flight resize by deltaSeconds and
// returns the proposed (unquantised) extent, matching
// ResizeSession.Update's contract. A trim snaps on the dragged edge
// alone: if the edge lands within the snap threshold of a feature,
// the delta is corrected to lock onto it and the snap guide is shown;
// otherwise the guide is hidden.
func (b *Bridge) UpdateResize(deltaSeconds float64, fps timemath.FPS) interaction.ResizeResult {
	b.mu.Lock()
	g := b.gesture.resize
	snapping := b.SnappingMode
	threshold := b.SnapThresholdPx
	b.mu.Unlock()
	if g == nil {
		return interaction.ResizeResult{}
	}

	result := g.session.Update(deltaSeconds)

	if snapping {
		b.Store.View(func(p *project.Project) {
			pps := p.PixelsPerSecond()
			if pps <= 0 {
				return
			}
			edgeSeconds := result.Position
			if g.session.Handle == interaction.HandleRight {
				edgeSeconds = result.Position + (result.End - result.Start)
			}
			ignored := map[string]bool{g.clipID: true}
			found := snap.Find([]float64{edgeSeconds * pps}, pps, p,
				snap.Options{ThresholdPx: threshold, Ignored: ignored},
				b.keyframeSnapTargets(p, fps, ignored))
			if !found.Found {
				b.HideSnapline()
				return
			}
			corrected := deltaSeconds + found.OffsetPixels/pps
			if g.session.Handle == interaction.HandleRight {
				corrected = deltaSeconds - found.OffsetPixels/pps
			}
			result = g.session.Update(corrected)
			b.ShowSnapline(found.TargetPixel)
		})
	}

	b.mu.Lock()
	if b.gesture.resize == g {
		b.gesture.resize.last = result
	}
	b.mu.Unlock()
	return result
}

// StopResize commits the in-flight resize: trim mode quantises and
// writes start/end/position directly and reports update_clip_data;
// retime mode pins start and reports the new end/position via
// RetimeClip instead. Either way it then checks for a missing
// transition and runs the autogrow check.
func (b *Bridge) StopResize(fps timemath.FPS) {
	b.mu.Lock()
	g := b.gesture.resize
	b.mu.Unlock()
	if g == nil {
		return
	}

	b.HideSnapline()
	b.Store.Mutate(func(p *project.Project) {
		c := p.ClipByID(g.clipID)
		if c == nil {
			return
		}

		switch g.session.Mode {
		case interaction.ModeRetime:
			commit := interaction.CommitRetime(c, g.last, fps)
			b.RetimeClip(commit.ClipID, commit.NewEnd, commit.NewPosition)
		default:
			interaction.CommitTrim(c, g.last, fps)
			b.UpdateClipData(c, true, true, false, g.txID)
		}

		if proposal := interaction.ProposeMissingTransition(p, c); proposal != nil {
			b.AddMissingTransition(proposal)
		}
		b.autogrowLocked(p)
	})

	b.mu.Lock()
	b.gesture = gestureState{}
	b.mu.Unlock()
}

// BeginKeyframeDrag starts a keyframe-drag gesture and
// immediately reports StartKeyframeDrag to the host.
func (b *Bridge) BeginKeyframeDrag(entityKind, entityID string, oldFrame int) {
	session := interaction.BeginKeyframeDrag(entityKind, entityID, oldFrame)
	g := &keyframeDragGesture{session: session}
	switch entityKind {
	case "transition":
		g.transitionID = entityID
	default:
		g.clipID = entityID
	}

	b.mu.Lock()
	b.gesture = gestureState{kind: gestureKeyframeDrag, kfDrag: g}
	b.mu.Unlock()

	b.StartKeyframeDrag(entityKind, entityID, session.TxID)
}

// UpdateKeyframeDrag proposes a new clamped, FPS-snapped candidate
// frame for the pointer's current seconds value.
func (b *Bridge) UpdateKeyframeDrag(candidateSeconds float64, fps timemath.FPS) int {
	b.mu.Lock()
	g := b.gesture.kfDrag
	b.mu.Unlock()
	if g == nil {
		return 0
	}

	var frame int
	b.Store.View(func(p *project.Project) {
		var start, end float64
		if g.clipID != "" {
			if c := p.ClipByID(g.clipID); c != nil {
				start, end = c.Start, c.End
			}
		} else if tr := p.TransitionByID(g.transitionID); tr != nil {
			start, end = tr.Start, tr.End
		}
		frame = interaction.ProposeFrame(candidateSeconds, fps, start, end)
	})

	b.mu.Lock()
	if b.gesture.kfDrag == g {
		b.gesture.kfDrag.candidate = frame
	}
	b.mu.Unlock()
	return frame
}

// StopKeyframeDrag commits the in-flight keyframe drag: every point at
// the gesture's old frame is rewritten to the last proposed candidate
// across the entity's property tracks and nested effects, the update
// is reported with allow_keyframes=false, and FinalizeKeyframeDrag
// closes out the gesture.
func (b *Bridge) StopKeyframeDrag() {
	b.mu.Lock()
	g := b.gesture.kfDrag
	b.mu.Unlock()
	if g == nil {
		return
	}

	b.Store.Mutate(func(p *project.Project) {
		var entity project.KeyframeSource
		if g.clipID != "" {
			if c := p.ClipByID(g.clipID); c != nil {
				entity = c
			}
		} else if tr := p.TransitionByID(g.transitionID); tr != nil {
			entity = tr
		}
		if entity == nil {
			return
		}

		if g.session.Commit(entity, g.candidate) {
			switch e := entity.(type) {
			case *project.Clip:
				b.UpdateClipData(e, false, true, false, g.session.TxID)
			case *project.Transition:
				b.UpdateTransitionData(e, true, false, g.session.TxID)
			}
		}
		b.FinalizeKeyframeDrag(g.session.EntityKind, g.session.EntityID)
	})

	b.mu.Lock()
	b.gesture = gestureState{}
	b.mu.Unlock()
}

// MarqueeSelect adds every clip/transition fully inside rect to the
// selection, clearing the existing selection first unless
// clear is false.
func (b *Bridge) MarqueeSelect(rect interaction.MarqueeRect, clear bool) {
	b.Store.Mutate(func(p *project.Project) {
		if clear {
			selection.Select(p, selection.Input{ClearSelections: true, Kind: selection.KindClip}, b, &b.last)
			selection.Select(p, selection.Input{ClearSelections: true, Kind: selection.KindTransition}, b, &b.last)
		}

		clips, transitions := interaction.MarqueeHits(p, rect)
		for _, c := range clips {
			if !c.Selected {
				c.Selected = true
				b.AddSelection(c.ID, selection.KindClip, false)
			}
		}
		for _, t := range transitions {
			if !t.Selected {
				t.Selected = true
				b.AddSelection(t.ID, selection.KindTransition, false)
			}
		}
	})
}
