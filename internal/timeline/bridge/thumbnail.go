package bridge

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ThumbnailURL formats a clip thumbnail request as
// {ThumbServer}{file_id}/{frame}/?{nonce}, where
// frame = floor(sourceFps * clip.start) + 1. The nonce defeats
// aggressive HTTP caching on thumbnail reloads (updateThumbnail).
func ThumbnailURL(thumbServer, fileID string, sourceFPS, clipStart float64) string {
	frame := int(math.Floor(sourceFPS*clipStart)) + 1
	return fmt.Sprintf("%s%s/%d/?%s", thumbServer, fileID, frame, uuid.NewString())
}
