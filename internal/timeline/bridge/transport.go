package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"timelinehost/internal/timeline/interaction"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/selection"
	"timelinehost/internal/timeline/timemath"
	"timelinehost/pkg/logger"
)

// InboundFrame is one host->engine call over the WebSocket, shaped as
// a JSON-RPC-style envelope.
type InboundFrame struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     string          `json:"id,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the HTTP request to a WebSocket, pumps InboundFrame
// messages into Dispatch, and drains b.Outbound to the same socket as
// server->client frames until either side closes. The caller is
// expected to have already run middleware.AuthRequired() on this
// route, matching every other timeline mutation endpoint.
func (b *Bridge) ServeWS(w http.ResponseWriter, r *http.Request, fps timemath.FPS) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case out, ok := <-b.Outbound:
				if !ok {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					logger.Warnf("bridge: write failed: %v", err)
					return
				}
			}
		}
	}()

	for {
		var frame InboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		b.Dispatch(frame, fps)
	}
	close(stop)
	<-done
	return nil
}

// Dispatch routes one inbound frame to its handler. Unknown
// methods and malformed params are logged and otherwise ignored,
// never fatal: external input is recovered from locally, with the
// host staying the source of truth.
func (b *Bridge) Dispatch(frame InboundFrame, fps timemath.FPS) {
	switch frame.Method {
	case "enableQt":
		b.EnableQt()
	case "setThumbAddress":
		var p struct {
			URL string `json:"url"`
		}
		if decode(frame.Params, &p) {
			b.SetThumbAddress(p.URL)
		}
	case "setScale":
		var p struct {
			Scale   float64 `json:"scale"`
			CursorX float64 `json:"cursor_x"`
		}
		if decode(frame.Params, &p) {
			b.SetScale(p.Scale, p.CursorX)
		}
	case "setScroll":
		var p struct {
			Normalized float64 `json:"normalized"`
		}
		if decode(frame.Params, &p) {
			b.SetScroll(p.Normalized)
		}
	case "setSnappingMode":
		var p struct {
			Value bool `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.SetSnappingMode(p.Value)
		}
	case "setRazorMode":
		var p struct {
			Value bool `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.SetRazorMode(p.Value)
		}
	case "setTimingMode":
		var p struct {
			Value bool `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.SetTimingMode(p.Value)
		}
	case "setFollow":
		var p struct {
			Value bool `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.SetFollow(p.Value)
		}
	case "setDragging":
		var p struct {
			Value bool `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.SetDragging(p.Value)
		}
	case "setPropertyFilter":
		var p struct {
			Filter string `json:"filter"`
		}
		if decode(frame.Params, &p) {
			b.SetPropertyFilter(p.Filter)
		}
	case "movePlayhead":
		var p struct {
			T float64 `json:"t"`
		}
		if decode(frame.Params, &p) {
			b.MovePlayhead(p.T, fps)
		}
	case "previewFrame":
		var p struct {
			T float64 `json:"t"`
		}
		if decode(frame.Params, &p) {
			b.PreviewFrame(p.T, fps)
		}
	case "previewClipFrame":
		var p struct {
			ID string  `json:"id"`
			T  float64 `json:"t"`
		}
		if decode(frame.Params, &p) {
			b.PreviewClipFrameInbound(p.ID, p.T, fps)
		}
	case "selectAll":
		b.SelectAll()
	case "clearAllSelections":
		b.ClearAllSelections()
	case "select":
		var p struct {
			ItemID          string  `json:"item_id"`
			Kind            string  `json:"kind"`
			ClearSelections bool    `json:"clear_selections"`
			Ctrl            bool    `json:"ctrl"`
			Shift           bool    `json:"shift"`
			Alt             bool    `json:"alt"`
			ForceRipple     bool    `json:"force_ripple"`
			CursorSeconds   float64 `json:"cursor_seconds"`
		}
		if decode(frame.Params, &p) {
			b.Select(p.ItemID, selection.Kind(p.Kind), p.ClearSelections, p.Ctrl, p.Shift, p.Alt, p.ForceRipple, p.CursorSeconds)
		}
	case "marqueeSelect":
		var p struct {
			StartSeconds float64 `json:"start_seconds"`
			EndSeconds   float64 `json:"end_seconds"`
			TopLayer     int     `json:"top_layer"`
			BottomLayer  int     `json:"bottom_layer"`
			Clear        bool    `json:"clear"`
		}
		if decode(frame.Params, &p) {
			b.MarqueeSelect(interaction.MarqueeRect{
				StartSeconds: p.StartSeconds, EndSeconds: p.EndSeconds,
				TopLayer: p.TopLayer, BottomLayer: p.BottomLayer,
			}, p.Clear)
		}
	case "startManualMove":
		var p struct {
			Type string   `json:"type"`
			IDs  []string `json:"ids"`
		}
		if decode(frame.Params, &p) {
			b.StartManualMove(p.Type, p.IDs, fps)
		}
	case "moveItem":
		var p struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}
		if decode(frame.Params, &p) {
			b.MoveItem(p.X, p.Y, fps)
		}
	case "updateRecentItemJSON":
		var p struct {
			Type string   `json:"type"`
			IDs  []string `json:"ids"`
			TxID string   `json:"tx_id"`
		}
		if decode(frame.Params, &p) {
			b.UpdateRecentItemJSON(p.Type, p.IDs, p.TxID, fps)
		}
	case "beginResize":
		var p struct {
			ClipID string `json:"clip_id"`
			Handle string `json:"handle"`
		}
		if decode(frame.Params, &p) {
			b.BeginResize(p.ClipID, interaction.Handle(p.Handle), fps)
		}
	case "resizeDelta":
		var p struct {
			DeltaSeconds float64 `json:"delta_seconds"`
		}
		if decode(frame.Params, &p) {
			b.UpdateResize(p.DeltaSeconds, fps)
		}
	case "endResize":
		b.StopResize(fps)
	case "beginKeyframeDrag":
		var p struct {
			EntityKind string `json:"entity_kind"`
			EntityID   string `json:"entity_id"`
			OldFrame   int    `json:"old_frame"`
		}
		if decode(frame.Params, &p) {
			b.BeginKeyframeDrag(p.EntityKind, p.EntityID, p.OldFrame)
		}
	case "keyframeDragDelta":
		var p struct {
			CandidateSeconds float64 `json:"candidate_seconds"`
		}
		if decode(frame.Params, &p) {
			b.UpdateKeyframeDrag(p.CandidateSeconds, fps)
		}
	case "endKeyframeDrag":
		b.StopKeyframeDrag()
	case "setThemeColors":
		var p map[string]string
		if decode(frame.Params, &p) {
			b.SetThemeColors(p)
		}
	case "setTheme":
		var p struct {
			CSS string `json:"css"`
		}
		if decode(frame.Params, &p) {
			b.SetTheme(p.CSS)
		}
	case "setTrackLabel":
		var p struct {
			Format string `json:"format"`
		}
		if decode(frame.Params, &p) {
			b.SetTrackLabel(p.Format)
		}
	case "setViewport":
		var p struct {
			Width float64 `json:"width"`
		}
		if decode(frame.Params, &p) {
			b.SetViewportWidth(p.Width)
		}
	case "scrollLeft":
		var p struct {
			DeltaPx float64 `json:"delta_px"`
		}
		if decode(frame.Params, &p) {
			b.ScrollLeftBy(p.DeltaPx)
		}
	case "centerOnTime":
		var p struct {
			Seconds float64 `json:"seconds"`
		}
		if decode(frame.Params, &p) {
			b.CenterOnTime(p.Seconds)
		}
	case "centerOnPlayhead":
		b.CenterOnPlayhead()
	case "movePlayheadToFrame":
		var p struct {
			Frame int `json:"frame"`
		}
		if decode(frame.Params, &p) {
			b.MovePlayheadToFrame(p.Frame, fps)
		}
	case "updateThumbnail":
		var p struct {
			ClipID string `json:"clip_id"`
		}
		if decode(frame.Params, &p) {
			b.UpdateThumbnail(p.ClipID)
		}
	case "reDrawAllAudioData":
		b.ReDrawAllAudioData()
	case "refreshTimeline":
		b.RefreshTimeline()
	case "renderCache":
		var p struct {
			Ranges []project.CacheRange `json:"ranges"`
		}
		if decode(frame.Params, &p) {
			b.RenderCache(p.Ranges)
		}
	case "loadJson":
		var p struct {
			Value project.Project `json:"value"`
		}
		if decode(frame.Params, &p) {
			b.LoadJSON(&p.Value)
		}
	case "applyJsonDiff":
		var p struct {
			Actions []project.DiffAction `json:"actions"`
		}
		if decode(frame.Params, &p) {
			if err := b.ApplyJSONDiff(p.Actions); err != nil {
				logger.Warnf("bridge: applyJsonDiff failed: %v", err)
			}
		}
	default:
		logger.Infof("bridge: unhandled inbound method %q", frame.Method)
	}
}

func decode(raw json.RawMessage, out interface{}) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warnf("bridge: bad params: %v", err)
		return false
	}
	return true
}
