// Package boundingbox computes the rectangle enclosing a multi-item
// selection and applies constrained group moves: axis delta, snap
// correction, and locked-track refusal.
package boundingbox

import (
	"sort"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/snap"
)

// Element captures one selected item's state at the moment a drag
// begins: its pixel left edge and the index of its starting layer
// within the box's Y-ordered layer snapshot.
type Element struct {
	ID              string
	Kind            string // "clip" | "transition"
	StartX          float64
	StartLayerIndex int
}

// Box is the bounding rectangle of the current selection, built once
// when a drag begins and held for the gesture's lifetime.
type Box struct {
	Left, Top, Right, Bottom float64
	Elements                 []Element
	// LayersByY is a Y-ascending snapshot of the project's layers taken
	// at drag start; vertical moves are resolved as an index delta into
	// this snapshot rather than a raw pixel comparison, so a group move
	// shifts every element by the same number of layer slots.
	LayersByY []*project.Layer
}

// Build encloses every item in items. pps is pixels-per-second.
func Build(p *project.Project, pps float64, items []project.TimelineItem) *Box {
	layersByY := append([]*project.Layer(nil), p.Layers...)
	sort.SliceStable(layersByY, func(i, j int) bool { return layersByY[i].Y < layersByY[j].Y })

	box := &Box{LayersByY: layersByY}
	first := true

	for _, item := range items {
		layer := p.LayerByNumber(item.LayerNumber())
		if layer == nil {
			continue
		}
		start, end := item.TimeExtent()
		left := start * pps
		right := end * pps
		top := layer.Y
		bottom := layer.Y + layer.Height

		if first {
			box.Left, box.Right, box.Top, box.Bottom = left, right, top, bottom
			first = false
		} else {
			if left < box.Left {
				box.Left = left
			}
			if right > box.Right {
				box.Right = right
			}
			if top < box.Top {
				box.Top = top
			}
			if bottom > box.Bottom {
				box.Bottom = bottom
			}
		}

		kind := "clip"
		if _, ok := item.(*project.Transition); ok {
			kind = "transition"
		}

		box.Elements = append(box.Elements, Element{
			ID:              item.ItemID(),
			Kind:            kind,
			StartX:          left,
			StartLayerIndex: indexAtY(layersByY, layer.Y),
		})
	}

	return box
}

func indexAtY(layers []*project.Layer, y float64) int {
	for i, l := range layers {
		if y >= l.Y && y < l.Y+l.Height {
			return i
		}
	}
	if len(layers) == 0 {
		return 0
	}
	if y < layers[0].Y {
		return 0
	}
	return len(layers) - 1
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// LockedLayerCollision reports whether shifting the box vertically by
// dy would sweep its vertical extent across any locked layer.
func (b *Box) LockedLayerCollision(dy float64, p *project.Project) bool {
	newTop := b.Top + dy
	newBottom := b.Bottom + dy
	for _, l := range p.Layers {
		if l.Y+l.Height > newTop && l.Y < newBottom && l.Lock {
			return true
		}
	}
	return false
}

func (b *Box) layerIndexDelta(dy float64) int {
	startIdx := indexAtY(b.LayersByY, b.Top)
	newIdx := indexAtY(b.LayersByY, b.Top+dy)
	return newIdx - startIdx
}

// MoveResult is the outcome of proposing a group move.
type MoveResult struct {
	Refused   bool
	Snapped   bool
	SnapDiff  float64 // pixels absorbed by the snap correction
	SnapPixel float64 // pixel position of the snap target, for the snap guide
	NewX      map[string]float64
	NewLayer  map[string]int
}

// ProposeMove computes the snap-corrected, locked-track-checked result
// of moving the box by (dx, dy) pixels. On refusal (locked-layer
// collision) NewX/NewLayer are nil: callers must not mutate the model.
func (b *Box) ProposeMove(dx, dy float64, p *project.Project, pixelsPerSecond float64, snapOpts snap.Options, extraSnapTargets []snap.Target) MoveResult {
	if b.LockedLayerCollision(dy, p) {
		return MoveResult{Refused: true}
	}

	candidates := []float64{b.Left + dx, b.Right + dx}
	snapResult := snap.Find(candidates, pixelsPerSecond, p, snapOpts, extraSnapTargets)

	correctedDx := dx
	snapped := false
	if snapResult.Found {
		correctedDx = dx - snapResult.OffsetPixels
		snapped = true
	}

	layerDelta := b.layerIndexDelta(dy)
	maxIdx := len(b.LayersByY) - 1

	newX := make(map[string]float64, len(b.Elements))
	newLayer := make(map[string]int, len(b.Elements))
	for _, el := range b.Elements {
		newX[el.ID] = el.StartX + correctedDx
		idx := clampIndex(el.StartLayerIndex+layerDelta, maxIdx)
		if idx >= 0 && idx < len(b.LayersByY) {
			newLayer[el.ID] = b.LayersByY[idx].Number
		}
	}

	return MoveResult{
		Snapped:   snapped,
		SnapDiff:  correctedDx - dx,
		SnapPixel: snapResult.TargetPixel,
		NewX:      newX,
		NewLayer:  newLayer,
	}
}
