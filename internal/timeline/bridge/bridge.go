// Package bridge implements the host bridge: the inbound methods
// the native host invokes on the engine and the outbound calls the
// engine makes back. In this server-side port the host is a browser
// client talking JSON-RPC-style frames over a WebSocket
// (github.com/gorilla/websocket); outbound calls are both
// pushed down that socket and published on a typed Go channel so HTTP
// handlers can observe them synchronously in tests.
package bridge

import (
	"sync"

	"timelinehost/internal/timeline/interaction"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/selection"
	"timelinehost/pkg/logger"
)

// Outbound is one engine->host call.
type Outbound struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

// Bridge holds the mode flags and transport-independent state the
// inbound method handlers read and write. One Bridge serves one
// connected host session over one project.
type Bridge struct {
	mu sync.Mutex

	Store *project.Store

	Bound            bool // enableQt was called
	ThumbAddress     string
	RazorMode        bool
	TimingMode       bool
	Follow           bool
	SnappingMode     bool
	PropertyFilter   string
	Dragging         bool
	ScrollNormalized float64

	// View-side state the host pushes down: installed theme CSS
	// and color variables, the track-label format string (%s = layer
	// number), and the client viewport width in pixels, which
	// centerOnTime/centerOnPlayhead need to place an instant at the
	// viewport's center.
	ThemeColors      map[string]string
	ThemeCSS         string
	TrackLabelFormat string
	ViewportWidth    float64

	// Tunables the service layer installs from config; New seeds the
	// engine defaults.
	SnapThresholdPx   float64
	MinTimelineLength float64
	MinTimelinePad    float64

	// gesture is the single in-flight direct-manipulation gesture for
	// this connection.
	gesture gestureState
	// last is the selection state machine's shift/alt anchor, threaded
	// across every "select" frame this connection sends.
	last selection.Last

	Outbound chan Outbound
}

// New returns a Bridge over store with demo-data defaults: unbound
// and snapping on. Every public method is safe to call before
// EnableQt; it just operates on the demo data.
func New(store *project.Store) *Bridge {
	return &Bridge{
		Store:             store,
		SnappingMode:      true,
		TrackLabelFormat:  "Track %s",
		SnapThresholdPx:   defaultSnapThresholdPx,
		MinTimelineLength: interaction.DefaultMinLength,
		MinTimelinePad:    interaction.DefaultMinPad,
		Outbound:          make(chan Outbound, 256),
	}
}

// emit publishes an outbound call. The channel send is non-blocking:
// a full channel (no consumer draining it) drops the call and logs a
// warning rather than stalling the event handler that produced it.
func (b *Bridge) emit(method string, params interface{}) {
	select {
	case b.Outbound <- Outbound{Method: method, Params: params}:
	default:
		logger.Warnf("bridge: outbound channel full, dropping %s", method)
	}
}
