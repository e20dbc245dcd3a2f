// Package selection implements the modifier-augmented click dispatch
// table for modifier-augmented clicks: plain / toggle / range / ripple / razor
// selection over clips, transitions and effects.
package selection

import (
	"timelinehost/internal/timeline/project"
)

// Kind names the type of entity a selection operation targets.
type Kind string

const (
	KindClip       Kind = "clip"
	KindTransition Kind = "transition"
	KindEffect     Kind = "effect"
)

// Host receives the selection side-effects the engine must report
// before a selection call returns.
type Host interface {
	AddSelection(id string, kind Kind, forceClearOthers bool)
	RemoveSelection(id string, kind Kind)
	RazorSliceAtCursor(clipID, transitionID string, cursorSeconds float64)
}

// Last remembers the most recently explicitly selected clip or
// transition, used as the anchor for shift-range and alt-ripple
// selection. It is owned by the caller and threaded across calls.
type Last struct {
	Valid bool
	ID    string
	Kind  Kind
}

// Input is one selection gesture's parameters.
type Input struct {
	ItemID          string
	Kind            Kind
	ClearSelections bool
	Ctrl            bool
	Shift           bool
	Alt             bool
	ForceRipple     bool
	Dragging        bool
	RazorMode       bool
	CursorSeconds   float64
}

// Select runs the dispatch table against p, reporting
// AddSelection/RemoveSelection/RazorSliceAtCursor calls to host before
// returning, and updates last when the gesture sets a new anchor.
func Select(p *project.Project, in Input, host Host, last *Last) {
	if in.ItemID == "" && in.ClearSelections {
		clearAll(p, in.Kind, host)
		return
	}

	if in.Dragging {
		return
	}

	if in.RazorMode {
		clipID, transitionID := "", ""
		switch in.Kind {
		case KindClip:
			clipID = in.ItemID
		case KindTransition:
			transitionID = in.ItemID
		}
		host.RazorSliceAtCursor(clipID, transitionID, in.CursorSeconds)
		return
	}

	if (in.Alt || in.ForceRipple) && (in.Kind == KindClip || in.Kind == KindTransition) {
		rippleSelect(p, in, host)
		return
	}

	if in.Shift && last.Valid && (in.Kind == KindClip || in.Kind == KindTransition) {
		rangeSelect(p, in, host, *last)
		return
	}

	defaultSelect(p, in, host, last)
}

func itemsOfKind(p *project.Project, kind Kind) []project.TimelineItem {
	var out []project.TimelineItem
	switch kind {
	case KindClip:
		for _, c := range p.Clips {
			out = append(out, c)
		}
	case KindTransition:
		for _, t := range p.Effects {
			out = append(out, t)
		}
	}
	return out
}

func clearAll(p *project.Project, kind Kind, host Host) {
	switch kind {
	case KindEffect:
		for _, e := range p.AllEffects() {
			if e.Selected {
				e.Selected = false
				host.RemoveSelection(e.ID, KindEffect)
			}
		}
	default:
		for _, item := range itemsOfKind(p, kind) {
			if item.IsSelected() {
				setSelected(item, false)
				host.RemoveSelection(item.ItemID(), kind)
			}
		}
	}
}

func setSelected(item project.TimelineItem, v bool) {
	switch it := item.(type) {
	case *project.Clip:
		it.Selected = v
	case *project.Transition:
		it.Selected = v
	}
}

func findAnchor(p *project.Project, kind Kind, id string) project.TimelineItem {
	for _, item := range itemsOfKind(p, kind) {
		if item.ItemID() == id {
			return item
		}
	}
	return nil
}

// rippleSelect marks every clip/transition on the anchor's layer with
// position >= anchor.position as selected.
// Ripple stays same-layer only, never cross-layer.
func rippleSelect(p *project.Project, in Input, host Host) {
	anchor := findAnchor(p, in.Kind, in.ItemID)
	if anchor == nil {
		return
	}
	anchorStart, _ := anchor.TimeExtent()
	anchorLayer := anchor.LayerNumber()

	if !in.Ctrl && in.ClearSelections {
		clearAll(p, in.Kind, host)
	}

	for _, item := range itemsOfKind(p, in.Kind) {
		if item.LayerNumber() != anchorLayer {
			continue
		}
		start, _ := item.TimeExtent()
		if start < anchorStart {
			continue
		}
		if !item.IsSelected() {
			setSelected(item, true)
			host.AddSelection(item.ItemID(), in.Kind, false)
		}
	}
}

// rangeSelect selects every clip/transition fully contained by the
// rectangle spanned by the shift anchor and the current item.
func rangeSelect(p *project.Project, in Input, host Host, anchorRef Last) {
	anchor := findAnchor(p, anchorRef.Kind, anchorRef.ID)
	current := findAnchor(p, in.Kind, in.ItemID)
	if anchor == nil || current == nil {
		return
	}

	aStart, aEnd := anchor.TimeExtent()
	cStart, cEnd := current.TimeExtent()
	minStart, maxEnd := aStart, aEnd
	if cStart < minStart {
		minStart = cStart
	}
	if cEnd > maxEnd {
		maxEnd = cEnd
	}
	minLayer, maxLayer := anchor.LayerNumber(), anchor.LayerNumber()
	if current.LayerNumber() < minLayer {
		minLayer = current.LayerNumber()
	}
	if current.LayerNumber() > maxLayer {
		maxLayer = current.LayerNumber()
	}

	if !in.Ctrl && in.ClearSelections {
		clearAll(p, in.Kind, host)
	}

	for _, item := range itemsOfKind(p, in.Kind) {
		start, end := item.TimeExtent()
		layer := item.LayerNumber()
		if start >= minStart && end <= maxEnd && layer >= minLayer && layer <= maxLayer {
			if !item.IsSelected() {
				setSelected(item, true)
				host.AddSelection(item.ItemID(), in.Kind, false)
			}
		}
	}
}

func defaultSelect(p *project.Project, in Input, host Host, last *Last) {
	if in.ClearSelections && !in.Ctrl {
		clearAll(p, in.Kind, host)
	}

	if in.Kind == KindEffect {
		effect, _ := p.EffectByID(in.ItemID)
		if effect == nil {
			return
		}
		if in.Ctrl && effect.Selected {
			effect.Selected = false
			host.RemoveSelection(effect.ID, KindEffect)
		} else {
			effect.Selected = true
			host.AddSelection(effect.ID, KindEffect, false)
		}
		last.Valid = true
		last.ID = in.ItemID
		last.Kind = in.Kind
		return
	}

	item := findAnchor(p, in.Kind, in.ItemID)
	if item == nil {
		return
	}
	if in.Ctrl && item.IsSelected() {
		setSelected(item, false)
		host.RemoveSelection(item.ItemID(), in.Kind)
	} else {
		setSelected(item, true)
		host.AddSelection(item.ItemID(), in.Kind, false)
	}
	last.Valid = true
	last.ID = in.ItemID
	last.Kind = in.Kind
}
