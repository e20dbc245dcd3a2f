package video_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelinehost/internal/timeline/project"
	"timelinehost/models"
)

func TestParseRationalKeepsNTSCExact(t *testing.T) {
	r := parseRational("30000/1001")
	assert.Equal(t, project.Rational{Num: 30000, Den: 1001}, r)

	assert.Equal(t, project.Rational{Num: 30, Den: 1}, parseRational(""))
	assert.Equal(t, project.Rational{Num: 30, Den: 1}, parseRational("0/0"))
}

func TestParseProbeBuildsReaderDescriptor(t *testing.T) {
	fp := &FFmpegProcessor{}
	out := []byte(`{
		"format": {"format_name": "mov,mp4,m4a", "duration": "4.0", "size": "1024", "bit_rate": "2000000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "24/1"},
			{"codec_type": "audio", "codec_name": "aac"}
		]
	}`)

	info, err := fp.parseProbe(out)
	require.NoError(t, err)

	assert.True(t, info.Reader.HasVideo)
	assert.True(t, info.Reader.HasAudio)
	assert.Equal(t, project.Rational{Num: 24, Den: 1}, info.Reader.FPS)
	assert.Equal(t, 96, info.Reader.VideoLength, "derived from duration when nb_frames is absent")
	assert.Equal(t, "video", info.Reader.MediaType)
	assert.False(t, info.Reader.HasSingleImage)
	assert.Equal(t, "1920x1080", info.Resolution())
}

func TestParseProbeClassifiesStillImages(t *testing.T) {
	fp := &FFmpegProcessor{}
	out := []byte(`{
		"format": {"format_name": "image2"},
		"streams": [{"codec_type": "video", "codec_name": "png", "width": 640, "height": 480, "r_frame_rate": "25/1", "nb_frames": "1"}]
	}`)

	info, err := fp.parseProbe(out)
	require.NoError(t, err)
	assert.Equal(t, "image", info.Reader.MediaType)
	assert.True(t, info.Reader.HasSingleImage)
}

func TestClipVolumeReadsFirstPoint(t *testing.T) {
	c := &project.Clip{}
	assert.Equal(t, 1.0, clipVolume(c), "no track plays at unity")

	c.Properties = map[string]*project.PropertyTrack{
		"volume": {Points: []project.KeyframePoint{{Co: project.Coordinate{X: 1, Y: 0.5}}}},
	}
	assert.Equal(t, 0.5, clipVolume(c))

	c.Properties["volume"].Points[0].Co.Y = 3
	assert.Equal(t, 1.0, clipVolume(c), "clamped to unity")
}

func catalogueClip(id uint, fileID string, duration float64, category string) models.AtomicClip {
	return models.AtomicClip{
		ID: id, FileID: fileID, Duration: duration, Category: category,
		HasVideo: true, FPSNum: 24, FPSDen: 1, Resolution: "1920x1080", Bitrate: 2500, FrameRate: 24,
	}
}

func TestGenerateCompositionAssemblesTimelineTree(t *testing.T) {
	clips := []models.AtomicClip{
		catalogueClip(1, "f1", 4, "travel"),
		catalogueClip(2, "f2", 4, "travel"),
	}
	sc := NewSmartCompositor(clips, CompositionRequirements{
		TargetDuration:  8,
		MinClipDuration: 1,
		MaxClipDuration: 4,
		TransitionStyle: "smooth",
		AvoidRepetition: true,
	})

	result, err := sc.GenerateComposition(nil, "smart_selection")
	require.NoError(t, err)
	require.NotNil(t, result.Project)

	p := result.Project
	require.Len(t, p.Clips, 2)
	assert.Equal(t, project.Rational{Num: 24, Den: 1}, p.FPS, "inherits the sources' rate")

	// The second clip slides under the first by the 1s smooth overlap.
	assert.InDelta(t, 0.0, p.Clips[0].Position, 1e-9)
	assert.InDelta(t, 3.0, p.Clips[1].Position, 1e-9)

	require.Len(t, p.Effects, 1)
	tr := p.Effects[0]
	assert.InDelta(t, 3.0, tr.Position, 1e-9)
	assert.InDelta(t, 1.0, tr.End, 1e-9)
	points := tr.Properties["alpha"].Points
	require.Len(t, points, 2)
	assert.Equal(t, 1.0, points[0].Co.X)
	assert.Equal(t, 25.0, points[1].Co.X, "1s fade at 24fps ends on frame 25")
	assert.Equal(t, project.InterpolationBezier, points[0].Interpolation)

	assert.InDelta(t, 7.0, p.Duration, 1e-9)
	assert.Equal(t, 2, result.ClipCount)
}

func TestGenerateCompositionCutStyleHasNoTransitions(t *testing.T) {
	clips := []models.AtomicClip{
		catalogueClip(1, "f1", 3, "travel"),
		catalogueClip(2, "f2", 3, "city"),
	}
	sc := NewSmartCompositor(clips, CompositionRequirements{
		TargetDuration:  6,
		MinClipDuration: 1,
		MaxClipDuration: 3,
		TransitionStyle: "cut",
		AvoidRepetition: true,
	})

	result, err := sc.GenerateComposition(nil, "theme_based")
	require.NoError(t, err)
	assert.Empty(t, result.Project.Effects)
	assert.InDelta(t, 6.0, result.Project.Duration, 1e-9)
}
