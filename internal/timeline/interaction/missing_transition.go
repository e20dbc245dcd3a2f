package interaction

import "timelinehost/internal/timeline/project"

const (
	minMissingTransitionDuration = 0.5
	transitionEdgeTolerance      = 0.01
)

// MissingTransitionProposal is a candidate transition the engine wants
// to report via add_missing_transition.
type MissingTransitionProposal struct {
	Layer    int
	Position float64
	Start    float64
	End      float64
}

// ProposeMissingTransition searches every other clip on moved's layer
// for temporal overlap, returning a proposal when one is found that
// isn't rejected by the minimum-duration or existing-transition-edge
// rules. Callers only invoke this after a
// single-entity drag or resize stop (group moves never propose one).
func ProposeMissingTransition(p *project.Project, moved *project.Clip) *MissingTransitionProposal {
	movedLeft, movedRight := moved.TimeExtent()

	for _, other := range p.Clips {
		if other.ID == moved.ID || other.Layer != moved.Layer {
			continue
		}
		otherLeft, otherRight := other.TimeExtent()

		var prop *MissingTransitionProposal
		switch {
		case movedLeft < otherRight && movedLeft > otherLeft:
			prop = &MissingTransitionProposal{Layer: moved.Layer, Position: movedLeft, Start: 0, End: otherRight - movedLeft}
		case movedRight > otherLeft && movedRight < otherRight:
			prop = &MissingTransitionProposal{Layer: moved.Layer, Position: otherLeft, Start: 0, End: movedRight - otherLeft}
		default:
			continue
		}

		if prop.End-prop.Start < minMissingTransitionDuration {
			continue
		}
		if collidesWithExistingTransition(p, moved.Layer, prop) {
			continue
		}
		return prop
	}
	return nil
}

func collidesWithExistingTransition(p *project.Project, layer int, prop *MissingTransitionProposal) bool {
	proposedRight := prop.Position + (prop.End - prop.Start)
	for _, tr := range p.Effects {
		if tr.Layer != layer {
			continue
		}
		left, right := tr.TimeExtent()
		if withinTolerance(left, prop.Position) || withinTolerance(right, prop.Position) ||
			withinTolerance(left, proposedRight) || withinTolerance(right, proposedRight) {
			return true
		}
	}
	return false
}

func withinTolerance(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= transitionEdgeTolerance
}
