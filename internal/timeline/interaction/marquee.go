package interaction

import "timelinehost/internal/timeline/project"

// MarqueeRect is a rubber-band selection rectangle in time/layer
// space: [left, right] in seconds and [topLayer, bottomLayer] by
// layer number, already resolved from the drag's pixel extent.
type MarqueeRect struct {
	StartSeconds float64
	EndSeconds   float64
	TopLayer     int
	BottomLayer  int
}

// MarqueeHits returns every clip and transition fully contained by
// rect, the population a marquee-selection drag adds to the selection
//. Cancellation regions (effect containers, menus, track resize
// handles) are a pointer-hit-testing concern the caller resolves
// before ever constructing a MarqueeRect.
func MarqueeHits(p *project.Project, rect MarqueeRect) (clips []*project.Clip, transitions []*project.Transition) {
	for _, c := range p.Clips {
		if containedIn(c, rect) {
			clips = append(clips, c)
		}
	}
	for _, t := range p.Effects {
		if containedIn(t, rect) {
			transitions = append(transitions, t)
		}
	}
	return clips, transitions
}

func containedIn(item project.TimelineItem, rect MarqueeRect) bool {
	start, end := item.TimeExtent()
	layer := item.LayerNumber()
	minLayer, maxLayer := rect.TopLayer, rect.BottomLayer
	if minLayer > maxLayer {
		minLayer, maxLayer = maxLayer, minLayer
	}
	return start >= rect.StartSeconds && end <= rect.EndSeconds && layer >= minLayer && layer <= maxLayer
}
