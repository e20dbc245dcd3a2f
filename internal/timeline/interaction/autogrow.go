package interaction

import "timelinehost/internal/timeline/project"

// DefaultMinLength and DefaultMinPad are the autogrow floor and
// padding, in seconds, used when config does not override them.
const (
	DefaultMinLength = 300.0
	DefaultMinPad    = 10.0
)

// Autogrow computes the timeline's required duration after an edit
//: the project grows to fit the rightmost clip edge plus a pad,
// never below minLength. It returns 0 when no growth is needed.
func Autogrow(p *project.Project, minLength, minPad float64) float64 {
	maxRight := 0.0
	for _, c := range p.Clips {
		_, right := c.TimeExtent()
		if right > maxRight {
			maxRight = right
		}
	}
	if maxRight <= p.Duration {
		return 0
	}

	target := maxRight + minPad
	if target < minLength {
		target = minLength
	}
	return target
}
