package bridge

import (
	"strconv"
	"strings"

	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
	"timelinehost/pkg/logger"
)

// This file carries the inbound methods that drive the view side
// of the bridge: theme installation, track labels, scrolling and
// centering, thumbnail/waveform refreshes, and the full-rebind
// refreshTimeline. In the original engine these manipulate the DOM
// directly; in this server-side port they update Bridge state and push
// the resulting view instructions down the outbound channel for the
// connected client to apply.

// SetThemeColors installs the host's CSS color variables and forwards
// them to the client view.
func (b *Bridge) SetThemeColors(colors map[string]string) {
	b.mu.Lock()
	b.ThemeColors = colors
	b.mu.Unlock()
	b.emit("setThemeColors", colors)
}

// SetTheme installs a full theme CSS blob and forwards it to the
// client view. Keyframe enumeration does not read it (icon fills come
// from the palette its caller passes), and there is no icon cache to
// flush server-side.
func (b *Bridge) SetTheme(css string) {
	b.mu.Lock()
	b.ThemeCSS = css
	b.mu.Unlock()
	b.emit("setTheme", css)
}

// SetTrackLabel installs the track-label format string, where %s is
// the layer number.
func (b *Bridge) SetTrackLabel(format string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TrackLabelFormat = format
}

// TrackLabel formats a layer number through the installed label format.
func (b *Bridge) TrackLabel(layerNumber int) string {
	b.mu.Lock()
	format := b.TrackLabelFormat
	b.mu.Unlock()
	return strings.ReplaceAll(format, "%s", strconv.Itoa(layerNumber))
}

// SetViewportWidth records the client viewport width in pixels.
// centerOnTime/centerOnPlayhead need it to place an instant at the
// viewport's center; the original engine read it off the DOM, so this
// port takes it as its own inbound frame.
func (b *Bridge) SetViewportWidth(px float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ViewportWidth = px
}

// canvasWidth returns the clamped total canvas width in pixels for the
// current project.
func (b *Bridge) canvasWidth() float64 {
	var width float64
	b.Store.View(func(p *project.Project) {
		width = timemath.ClampCanvasWidth(p.Duration * p.PixelsPerSecond())
	})
	return width
}

// ScrollLeftBy shifts the horizontal scroll position by a relative
// pixel delta, clamped to the canvas.
func (b *Bridge) ScrollLeftBy(deltaPx float64) {
	width := b.canvasWidth()
	if width <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	px := b.ScrollNormalized*width + deltaPx
	if px < 0 {
		px = 0
	}
	if px > width {
		px = width
	}
	b.ScrollNormalized = px / width
}

// CenterOnTime scrolls so t lies at the viewport center, clamped at
// the timeline's right edge. With no recorded viewport width the
// target instant is placed at the scroll position itself, the closest
// the engine can get without knowing the window.
func (b *Bridge) CenterOnTime(t float64) {
	width := b.canvasWidth()
	if width <= 0 {
		return
	}
	var pps float64
	b.Store.View(func(p *project.Project) { pps = p.PixelsPerSecond() })

	b.mu.Lock()
	defer b.mu.Unlock()
	px := t*pps - b.ViewportWidth/2
	maxPx := width - b.ViewportWidth
	if maxPx < 0 {
		maxPx = 0
	}
	if px > maxPx {
		px = maxPx
	}
	if px < 0 {
		px = 0
	}
	b.ScrollNormalized = px / width
}

// CenterOnPlayhead scrolls the playhead to the viewport center.
func (b *Bridge) CenterOnPlayhead() {
	var playhead float64
	b.Store.View(func(p *project.Project) { playhead = p.PlayheadPosition })
	b.CenterOnTime(playhead)
}

// MovePlayheadToFrame positions the playhead on a 1-based frame number.
func (b *Bridge) MovePlayheadToFrame(frame int, fps timemath.FPS) {
	if frame < 1 {
		frame = 1
	}
	f := fps.Value()
	if f == 0 {
		return
	}
	b.MovePlayhead(float64(frame-1)/f, fps)
}

// UpdateThumbnail forces a reload of a clip's thumbnail via a fresh
// cache-busting URL. Unknown clip IDs are a logged no-op.
func (b *Bridge) UpdateThumbnail(clipID string) {
	b.mu.Lock()
	thumbServer := b.ThumbAddress
	b.mu.Unlock()

	var url string
	b.Store.View(func(p *project.Project) {
		c := p.ClipByID(clipID)
		if c == nil {
			logger.Debugf("bridge: updateThumbnail for unknown clip %q", clipID)
			return
		}
		url = ThumbnailURL(thumbServer, c.FileID, c.Reader.FPS.Value(), c.Start)
	})
	if url == "" {
		return
	}
	b.emit("updateThumbnail", map[string]interface{}{"clip_id": clipID, "url": url})
}

// ReDrawAllAudioData pushes every audio-bearing clip's waveform back
// to the client for a redraw.
func (b *Bridge) ReDrawAllAudioData() {
	b.Store.View(func(p *project.Project) {
		for _, c := range p.Clips {
			if !c.Reader.HasAudio || len(c.UI.AudioData) == 0 {
				continue
			}
			b.emit("redrawAudio", map[string]interface{}{"clip_id": c.ID, "samples": c.UI.AudioData})
		}
	})
}

// RefreshTimeline forces a full view rebind by pushing the complete
// project snapshot down the socket.
func (b *Bridge) RefreshTimeline() {
	b.emit("refreshTimeline", b.Store.Snapshot())
}
