package bridge

import (
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/selection"
	"timelinehost/internal/timeline/timemath"
)

// EnableQt marks the engine as bound to the host, clears demo data,
// and reports page_ready.
func (b *Bridge) EnableQt() {
	b.mu.Lock()
	b.Bound = true
	b.mu.Unlock()
	b.Store.Mutate(func(p *project.Project) {
		*p = project.Project{FPS: p.FPS, Scale: p.Scale, TickPixels: p.TickPixels}
	})
	b.PageReady()
}

// SetThumbAddress installs the base thumbnail URL.
func (b *Bridge) SetThumbAddress(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ThumbAddress = url
}

// SetScale changes pixelsPerSecond while keeping a fixed seconds value
// anchored under cursorX. When cursorX <= 0, the anchor falls back to the
// playhead if it is currently within [0, project.duration], else to
// the timeline's left edge (seconds=0).
//
// The recentring is applied here, not left to the client: scroll is
// tracked as ScrollNormalized, a [0,1] fraction of the (clamped) total
// canvas width, so it has to be recomputed whenever
// that width changes underneath it. AnchorSeconds's viewport-relative
// pixel offset (its distance from the current scroll position) is
// held fixed across the rescale: the new scroll position is solved so
// anchorSeconds lands at the same offset from the viewport's left
// edge it occupied before the scale changed. AnchorSeconds is also
// returned for callers that want it for their own bookkeeping.
func (b *Bridge) SetScale(newScale float64, cursorX float64) (anchorSeconds float64) {
	b.Store.Mutate(func(p *project.Project) {
		oldPPS := p.PixelsPerSecond()
		switch {
		case cursorX > 0:
			anchorSeconds = timemath.PixelToTime(cursorX, oldPPS)
		case p.PlayheadPosition >= 0 && p.PlayheadPosition <= p.Duration:
			anchorSeconds = p.PlayheadPosition
		default:
			anchorSeconds = 0
		}
		oldWidth := timemath.ClampCanvasWidth(p.Duration * oldPPS)

		p.Scale = newScale
		newPPS := p.PixelsPerSecond()
		newWidth := timemath.ClampCanvasWidth(p.Duration * newPPS)

		b.mu.Lock()
		defer b.mu.Unlock()
		viewportOffset := anchorSeconds*oldPPS - b.ScrollNormalized*oldWidth
		newScrollPx := anchorSeconds*newPPS - viewportOffset
		switch {
		case newScrollPx < 0:
			newScrollPx = 0
		case newScrollPx > newWidth:
			newScrollPx = newWidth
		}
		if newWidth > 0 {
			b.ScrollNormalized = newScrollPx / newWidth
		} else {
			b.ScrollNormalized = 0
		}
	})
	return anchorSeconds
}

// SetScroll installs an absolute normalized ([0,1]) scroll position.
func (b *Bridge) SetScroll(normalized float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ScrollNormalized = normalized
}

// SetSnappingMode, SetRazorMode, SetTimingMode, SetFollow, SetDragging
// install the corresponding mode flags.
func (b *Bridge) SetSnappingMode(v bool) { b.mu.Lock(); b.SnappingMode = v; b.mu.Unlock() }
func (b *Bridge) SetRazorMode(v bool)    { b.mu.Lock(); b.RazorMode = v; b.mu.Unlock() }
func (b *Bridge) SetTimingMode(v bool)   { b.mu.Lock(); b.TimingMode = v; b.mu.Unlock() }
func (b *Bridge) SetFollow(v bool)       { b.mu.Lock(); b.Follow = v; b.mu.Unlock() }
func (b *Bridge) SetDragging(v bool)     { b.mu.Lock(); b.Dragging = v; b.mu.Unlock() }

// SetPropertyFilter installs the keyframe-enumeration substring filter.
func (b *Bridge) SetPropertyFilter(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.PropertyFilter = s
}

// MovePlayhead quantises t to the FPS grid and updates the replica
//.
func (b *Bridge) MovePlayhead(t float64, fps timemath.FPS) {
	b.Store.Mutate(func(p *project.Project) {
		p.PlayheadPosition = timemath.SnapToFPSGridTime(t, fps)
	})
}

// PreviewFrame computes frame = round(t*F) + 1 and reports
// PlayheadMoved.
func (b *Bridge) PreviewFrame(t float64, fps timemath.FPS) {
	frame := int(t*fps.Value()+0.5) + 1
	b.PlayheadMoved(frame)
}

// PreviewClipFrameInbound rounds t to the frame grid before
// converting, so equal-within-half-a-frame inputs land on the same
// frame, then reports it via the outbound
// PreviewClipFrame call.
func (b *Bridge) PreviewClipFrameInbound(clipID string, t float64, fps timemath.FPS) {
	snapped := timemath.SnapToFPSGridTime(t, fps)
	frame := int(snapped*fps.Value()+0.5) + 1
	b.PreviewClipFrame(clipID, frame)
}

// Select runs one modifier-click selection against itemID,
// routed through the selection package's dispatch table (plain/
// toggle/range/ripple/razor) rather than touching Selected fields
// directly, so AddSelection/RemoveSelection/RazorSliceAtCursor are
// always reported and b.last stays the gesture's shift/alt anchor.
func (b *Bridge) Select(itemID string, kind selection.Kind, clearSelections, ctrl, shift, alt, forceRipple bool, cursorSeconds float64) {
	b.mu.Lock()
	razor := b.RazorMode
	dragging := b.Dragging
	b.mu.Unlock()

	in := selection.Input{
		ItemID:          itemID,
		Kind:            kind,
		ClearSelections: clearSelections,
		Ctrl:            ctrl,
		Shift:           shift,
		Alt:             alt,
		ForceRipple:     forceRipple,
		Dragging:        dragging,
		RazorMode:       razor,
		CursorSeconds:   cursorSeconds,
	}

	b.Store.Mutate(func(p *project.Project) {
		selection.Select(p, in, b, &b.last)
	})
}

// SelectAll marks every clip and transition selected, reporting
// AddSelection for each one newly selected so the host's own
// selection-set bookkeeping stays in sync. The dispatch table has no
// bulk-select row, so this bypasses selection.Select rather than
// bolting a synthetic one onto it.
func (b *Bridge) SelectAll() {
	b.Store.Mutate(func(p *project.Project) {
		for _, c := range p.Clips {
			if !c.Selected {
				c.Selected = true
				b.AddSelection(c.ID, selection.KindClip, false)
			}
		}
		for _, t := range p.Effects {
			if !t.Selected {
				t.Selected = true
				b.AddSelection(t.ID, selection.KindTransition, false)
			}
		}
	})
}

// ClearAllSelections deselects every clip, transition and effect,
// reusing selection.Select's own clear-all branch (the same one an
// itemId=="" modifier click takes) instead of re-implementing it.
func (b *Bridge) ClearAllSelections() {
	b.Store.Mutate(func(p *project.Project) {
		selection.Select(p, selection.Input{ClearSelections: true, Kind: selection.KindClip}, b, &b.last)
		selection.Select(p, selection.Input{ClearSelections: true, Kind: selection.KindTransition}, b, &b.last)
		selection.Select(p, selection.Input{ClearSelections: true, Kind: selection.KindEffect}, b, &b.last)
	})
}

// RenderCache replaces progress.ranges.
func (b *Bridge) RenderCache(ranges []project.CacheRange) {
	b.Store.Mutate(func(p *project.Project) {
		p.Progress.Ranges = ranges
	})
}

// LoadJSON replaces the project wholesale.
func (b *Bridge) LoadJSON(newProject *project.Project) {
	b.Store.Load(newProject)
}

// ApplyJSONDiff runs the diff-apply algorithm against the store.
func (b *Bridge) ApplyJSONDiff(actions []project.DiffAction) error {
	return b.Store.ApplyJSONDiff(actions)
}
