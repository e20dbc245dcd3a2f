package interaction

import (
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
)

// Handle names which resize handle a clip trim/retime gesture is
// dragging.
type Handle string

const (
	HandleLeft  Handle = "left"
	HandleRight Handle = "right"
)

// Mode names whether a resize gesture trims the source window or
// stretches/compresses the clip's playback speed while pinning start.
type Mode string

const (
	ModeTrim   Mode = "trim"
	ModeRetime Mode = "retime"
)

// ResizeSession captures a clip's original extent at drag-start; every
// update is computed against that captured state, not the live clip.
type ResizeSession struct {
	ClipID          string
	Handle          Handle
	Mode            Mode
	OriginalStart   float64
	OriginalEnd     float64
	OriginalPos     float64
	MaxDuration   float64 // reader's natural duration, or retimed span; 0 = unlimited
	SingleImage   bool
}

// BeginResize captures a clip's starting state for a trim/retime
// gesture. timingMode mirrors the host's setTimingMode flag; maxDuration
// is the reader's natural duration unless a time curve or timing mode
// makes the clip unlimited (0 means unlimited).
func BeginResize(c *project.Clip, handle Handle, timingMode bool, maxDuration float64) *ResizeSession {
	mode := ModeTrim
	if timingMode {
		mode = ModeRetime
	}
	return &ResizeSession{
		ClipID:        c.ID,
		Handle:        handle,
		Mode:          mode,
		OriginalStart: c.Start,
		OriginalEnd:   c.End,
		OriginalPos:   c.Position,
		MaxDuration:   maxDuration,
		SingleImage:   c.Reader.HasSingleImage,
	}
}

// ResizeResult is the proposed new clip extent for a live resize tick,
// before FPS-grid quantisation.
type ResizeResult struct {
	Start    float64
	End      float64
	Position float64
}

// Update applies a resize of deltaSeconds to the session's captured
// start, returning the proposed (unquantised) new extent under the
// handle constraints below.
func (s *ResizeSession) Update(deltaSeconds float64) ResizeResult {
	switch s.Handle {
	case HandleLeft:
		return s.updateLeft(deltaSeconds)
	default:
		return s.updateRight(deltaSeconds)
	}
}

// updateLeft implements the left-handle cascade: the timeline
// position absorbs the drag first (it cannot go below 0) and the
// source start moves by the same amount; drag beyond position 0 is
// dropped. Where start would go below 0 it stops at 0, and the
// shortfall is, for a normal clip, taken back out of end (shrinking the
// visible window), or left alone for a single-image/timing-mode clip,
// whose end stays where it was.
func (s *ResizeSession) updateLeft(deltaSeconds float64) ResizeResult {
	positionOverflow := 0.0
	if deltaSeconds > s.OriginalPos {
		positionOverflow = deltaSeconds - s.OriginalPos
	}
	positionDelta := deltaSeconds - positionOverflow
	newPosition := s.OriginalPos - positionDelta

	startAttempt := s.OriginalStart - positionDelta
	startOverflow := 0.0
	if startAttempt < 0 {
		startOverflow = -startAttempt
	}
	newStart := startAttempt + startOverflow

	newEnd := s.OriginalEnd
	if !s.SingleImage && s.Mode != ModeRetime {
		newEnd = s.OriginalEnd - startOverflow
	}
	if newStart > newEnd {
		newStart = newEnd
	}

	return ResizeResult{Start: newStart, End: newEnd, Position: newPosition}
}

func (s *ResizeSession) updateRight(deltaSeconds float64) ResizeResult {
	newEnd := s.OriginalEnd + deltaSeconds
	if s.MaxDuration > 0 {
		maxEnd := s.OriginalStart + s.MaxDuration
		if newEnd > maxEnd {
			newEnd = maxEnd
		}
	}
	if newEnd < s.OriginalStart {
		newEnd = s.OriginalStart
	}
	return ResizeResult{Start: s.OriginalStart, End: newEnd, Position: s.OriginalPos}
}

// CommitTrim quantises the final extent to the FPS grid and writes it
// to c, clamping End if the clip shrank past it.
func CommitTrim(c *project.Clip, result ResizeResult, fps timemath.FPS) {
	start := timemath.SnapToFPSGridTime(result.Start, fps)
	end := timemath.SnapToFPSGridTime(result.End, fps)
	position := timemath.SnapToFPSGridTime(result.Position, fps)
	if end < start {
		end = start
	}
	c.Start = start
	c.End = end
	c.Position = position
}

// RetimeCommit is the quantised outcome of a retime-mode resize stop:
// start is preserved, end/position are recomputed, and the host is
// told via RetimeClip rather than a raw field write.
type RetimeCommit struct {
	ClipID      string
	NewEnd      float64
	NewPosition float64
}

// CommitRetime computes the final retime-mode commit: start stays
// pinned, end becomes start + newDuration, position adjusts so the
// clip's right edge doesn't silently move, and the new duration/
// position are FPS-quantised.
func CommitRetime(c *project.Clip, result ResizeResult, fps timemath.FPS) RetimeCommit {
	newDuration := timemath.SnapToFPSGridTime(result.End-result.Start, fps)
	position := timemath.SnapToFPSGridTime(result.Position, fps)
	newEnd := c.Start + newDuration
	c.End = newEnd
	c.Position = position
	return RetimeCommit{ClipID: c.ID, NewEnd: newEnd, NewPosition: position}
}
