package video_engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"timelinehost/config"
	"timelinehost/internal/timeline/project"
	"timelinehost/pkg/logger"
)

// FFmpegProcessor shells out to ffmpeg/ffprobe for the media work the
// timeline engine triggers but never performs itself: probing a source
// file into a clip reader descriptor, extracting single frames for
// thumbnails, sampling audio into waveform arrays, and rendering a
// project tree to a file.
type FFmpegProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// MediaInfo describes an ingested source file: the container-level
// fields the clip catalogue stores, plus the reader descriptor a
// timeline clip carries once it references this file.
type MediaInfo struct {
	Reader     project.ReaderInfo `json:"reader"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Codec      string             `json:"codec"`
	AudioCodec string             `json:"audio_codec"`
	Size       int64              `json:"size"`
	Bitrate    int                `json:"bitrate"`
	Format     string             `json:"format"`
}

// Resolution returns the catalogue's "WxH" display string.
func (m *MediaInfo) Resolution() string {
	if m.Width == 0 && m.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

type RenderOptions struct {
	OutputFormat string        `json:"output_format"`
	Quality      string        `json:"quality"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	FrameRate    float64       `json:"frame_rate"`
	VideoBitrate int           `json:"video_bitrate"`
	AudioBitrate int           `json:"audio_bitrate"`
	Preset       string        `json:"preset"`
	CRF          int           `json:"crf"`
	Filters      []VideoFilter `json:"filters"`
}

type VideoFilter struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

type RenderProgress struct {
	Frame    int     `json:"frame"`
	FPS      float64 `json:"fps"`
	Seconds  float64 `json:"seconds"`
	Speed    float64 `json:"speed"`
	Progress float64 `json:"progress"` // 0-100
}

func NewFFmpegProcessor(cfg *config.Config) *FFmpegProcessor {
	return &FFmpegProcessor{
		ffmpegPath:  cfg.FFmpeg.FFmpegPath,
		ffprobePath: cfg.FFmpeg.FFprobePath,
	}
}

// ProbeMedia runs ffprobe over a source file and builds both halves of
// its description: the catalogue fields and the timeline reader
// descriptor, with the frame rate kept as an exact rational rather
// than collapsed to a float.
func (fp *FFmpegProcessor) ProbeMedia(filePath string) (*MediaInfo, error) {
	cmd := exec.Command(fp.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		logger.Errorf("ffprobe failed for %s: %v", filePath, err)
		return nil, fmt.Errorf("failed to analyze media: %w", err)
	}

	return fp.parseProbe(output)
}

func (fp *FFmpegProcessor) parseProbe(output []byte) (*MediaInfo, error) {
	var probe struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
			Size       string `json:"size"`
			BitRate    string `json:"bit_rate"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
			NbFrames   string `json:"nb_frames"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{Format: probe.Format.FormatName}

	if duration, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Reader.Duration = duration
	}
	if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		info.Size = size
	}
	if bitrate, err := strconv.Atoi(probe.Format.BitRate); err == nil {
		info.Bitrate = bitrate
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.Reader.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.Codec = stream.CodecName
			info.Reader.FPS = parseRational(stream.RFrameRate)
			if frames, err := strconv.Atoi(stream.NbFrames); err == nil {
				info.Reader.VideoLength = frames
			}
		case "audio":
			info.Reader.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	if info.Reader.VideoLength == 0 && info.Reader.HasVideo {
		info.Reader.VideoLength = int(info.Reader.Duration*info.Reader.FPS.Value() + 0.5)
	}

	switch {
	case isImageFormat(probe.Format.FormatName):
		info.Reader.MediaType = "image"
		info.Reader.HasSingleImage = true
	case info.Reader.HasVideo:
		info.Reader.MediaType = "video"
		info.Reader.HasSingleImage = info.Reader.VideoLength == 1
	case info.Reader.HasAudio:
		info.Reader.MediaType = "audio"
	}

	return info, nil
}

// parseRational keeps ffprobe's "num/den" frame rate exact. A missing
// or zero rate falls back to 30/1 so frame math never divides by zero
// downstream.
func parseRational(s string) project.Rational {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return project.Rational{Num: 30, Den: 1}
	}
	num, err1 := strconv.Atoi(parts[0])
	den, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || den == 0 || num == 0 {
		return project.Rational{Num: 30, Den: 1}
	}
	return project.Rational{Num: num, Den: den}
}

func isImageFormat(formatName string) bool {
	for _, f := range strings.Split(formatName, ",") {
		switch f {
		case "image2", "png_pipe", "mjpeg", "gif", "webp_pipe":
			return true
		}
	}
	return false
}

// ExtractFrame seeks to a 1-based frame number and writes that single
// frame as an image, the operation behind a clip's thumbnail URL
// ({thumb server}{file_id}/{frame}/).
func (fp *FFmpegProcessor) ExtractFrame(filePath string, frame int, fps project.Rational, outputPath string) error {
	if frame < 1 {
		frame = 1
	}
	if fps.Value() == 0 {
		fps = project.Rational{Num: 30, Den: 1}
	}
	seek := float64(frame-1) * float64(fps.Den) / float64(fps.Num)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	cmd := exec.Command(fp.ffmpegPath,
		"-ss", fmt.Sprintf("%.6f", seek),
		"-i", filePath,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	)

	if err := cmd.Run(); err != nil {
		logger.Errorf("Failed to extract frame %d from %s: %v", frame, filePath, err)
		return fmt.Errorf("failed to extract frame: %w", err)
	}

	return nil
}

// ExtractWaveform decodes a file's audio to mono 8 kHz PCM and folds
// it into sampleCount peak amplitudes in [0, 1], the shape a clip's
// audio_data array carries for waveform drawing.
func (fp *FFmpegProcessor) ExtractWaveform(filePath string, sampleCount int) ([]float64, error) {
	if sampleCount <= 0 {
		sampleCount = 200
	}

	cmd := exec.Command(fp.ffmpegPath,
		"-i", filePath,
		"-vn",
		"-ac", "1",
		"-ar", "8000",
		"-f", "s16le",
		"pipe:1",
	)

	pcm, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	sampleTotal := len(pcm) / 2
	if sampleTotal == 0 {
		return nil, fmt.Errorf("no audio samples in %s", filePath)
	}
	if sampleCount > sampleTotal {
		sampleCount = sampleTotal
	}

	out := make([]float64, sampleCount)
	bucket := sampleTotal / sampleCount
	for i := 0; i < sampleCount; i++ {
		peak := 0
		for j := i * bucket; j < (i+1)*bucket; j++ {
			v := int(int16(uint16(pcm[2*j]) | uint16(pcm[2*j+1])<<8))
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		out[i] = float64(peak) / 32768.0
	}

	return out, nil
}

// RenderTimeline renders a project tree to a file. Clips are laid out
// bottom layer first, each trimmed to its [start, end] source window,
// shifted to its timeline position, and overlaid over the layers
// below; audio streams are delayed to their positions and mixed, each
// scaled by its volume track's first point (a constant approximation;
// the full curve belongs to the realtime engine, not this batch
// path). resolvePath maps a clip's file_id to a local path.
func (fp *FFmpegProcessor) RenderTimeline(p *project.Project, resolvePath func(fileID string) (string, error), outputPath string, options *RenderOptions, progressCallback func(*RenderProgress)) error {
	clips := make([]*project.Clip, len(p.Clips))
	copy(clips, p.Clips)
	sort.SliceStable(clips, func(i, j int) bool {
		if clips[i].Layer != clips[j].Layer {
			return clips[i].Layer < clips[j].Layer
		}
		return clips[i].Position < clips[j].Position
	})
	if len(clips) == 0 {
		return fmt.Errorf("timeline has no clips to render")
	}

	width, height := 1920, 1080
	if options != nil && options.Width > 0 && options.Height > 0 {
		width, height = options.Width, options.Height
	}

	duration := 0.0
	for _, c := range clips {
		_, right := c.TimeExtent()
		if right > duration {
			duration = right
		}
	}

	var args []string
	inputIndex := make(map[string]int)
	for _, c := range clips {
		if _, ok := inputIndex[c.FileID]; ok {
			continue
		}
		path, err := resolvePath(c.FileID)
		if err != nil {
			return fmt.Errorf("cannot resolve file %s: %w", c.FileID, err)
		}
		inputIndex[c.FileID] = len(inputIndex)
		args = append(args, "-i", path)
	}

	filters := []string{fmt.Sprintf("color=c=black:s=%dx%d:d=%.3f[bg]", width, height, duration)}
	prev := "bg"
	var audioLabels []string
	for i, c := range clips {
		idx := inputIndex[c.FileID]
		if c.Reader.HasVideo {
			filters = append(filters, fmt.Sprintf(
				"[%d:v]trim=start=%.3f:end=%.3f,setpts=PTS-STARTPTS+%.3f/TB,scale=%d:%d[v%d]",
				idx, c.Start, c.End, c.Position, width, height, i))
			next := fmt.Sprintf("ov%d", i)
			filters = append(filters, fmt.Sprintf(
				"[%s][v%d]overlay=eof_action=pass:enable='between(t,%.3f,%.3f)'[%s]",
				prev, i, c.Position, c.Position+c.Duration(), next))
			prev = next
		}
		if c.Reader.HasAudio {
			delayMs := int(c.Position * 1000)
			filters = append(filters, fmt.Sprintf(
				"[%d:a]atrim=start=%.3f:end=%.3f,asetpts=PTS-STARTPTS,adelay=%d:all=1,volume=%.3f[a%d]",
				idx, c.Start, c.End, delayMs, clipVolume(c), i))
			audioLabels = append(audioLabels, fmt.Sprintf("[a%d]", i))
		}
	}
	if len(audioLabels) > 0 {
		filters = append(filters, fmt.Sprintf("%samix=inputs=%d:normalize=0[outa]",
			strings.Join(audioLabels, ""), len(audioLabels)))
	}

	args = append(args, "-filter_complex", strings.Join(filters, ";"))
	args = append(args, "-map", fmt.Sprintf("[%s]", prev))
	if len(audioLabels) > 0 {
		args = append(args, "-map", "[outa]")
	}
	args = append(args, fp.buildRenderArgs(options)...)
	args = append(args, "-t", fmt.Sprintf("%.3f", duration))
	if progressCallback != nil {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	args = append(args, "-y", outputPath)

	cmd := exec.Command(fp.ffmpegPath, args...)
	if progressCallback != nil {
		return fp.runWithProgress(cmd, duration, progressCallback)
	}
	if err := cmd.Run(); err != nil {
		logger.Errorf("Failed to render timeline: %v", err)
		return fmt.Errorf("failed to render timeline: %w", err)
	}
	return nil
}

// clipVolume reads the volume track's first point as a constant [0, 1]
// gain; clips without a volume track play at unity.
func clipVolume(c *project.Clip) float64 {
	track, ok := c.Properties["volume"]
	if !ok || track == nil || len(track.Points) == 0 {
		return 1.0
	}
	v := track.Points[0].Co.Y
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (fp *FFmpegProcessor) buildRenderArgs(options *RenderOptions) []string {
	if options == nil {
		return []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac", "-b:a", "128k"}
	}

	args := []string{"-c:v", "libx264"}

	if options.Preset != "" {
		args = append(args, "-preset", options.Preset)
	} else {
		args = append(args, "-preset", "medium")
	}

	if options.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(options.CRF))
	} else {
		switch options.Quality {
		case "low":
			args = append(args, "-crf", "28")
		case "high":
			args = append(args, "-crf", "18")
		case "ultra":
			args = append(args, "-crf", "15")
		default:
			args = append(args, "-crf", "23")
		}
	}

	if options.FrameRate > 0 {
		args = append(args, "-r", fmt.Sprintf("%.3f", options.FrameRate))
	}
	if options.VideoBitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", options.VideoBitrate))
	}

	args = append(args, "-c:a", "aac")
	if options.AudioBitrate > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", options.AudioBitrate))
	} else {
		args = append(args, "-b:a", "128k")
	}

	if len(options.Filters) > 0 {
		if filterStr := buildVideoFilters(options.Filters); filterStr != "" {
			args = append(args, "-vf", filterStr)
		}
	}

	return args
}

func buildVideoFilters(filters []VideoFilter) string {
	var filterStrings []string
	for _, filter := range filters {
		filterStr := filter.Name
		if len(filter.Parameters) > 0 {
			var params []string
			for key, value := range filter.Parameters {
				params = append(params, fmt.Sprintf("%s=%v", key, value))
			}
			filterStr += "=" + strings.Join(params, ":")
		}
		filterStrings = append(filterStrings, filterStr)
	}
	return strings.Join(filterStrings, ",")
}

// runWithProgress consumes ffmpeg's "-progress pipe:1" stream, a
// sequence of key=value lines terminated by a progress= marker, and
// reports one RenderProgress per block.
func (fp *FFmpegProcessor) runWithProgress(cmd *exec.Cmd, totalDuration float64, progressCallback func(*RenderProgress)) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		current := &RenderProgress{}
		for scanner.Scan() {
			key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
			if !ok {
				continue
			}
			switch key {
			case "frame":
				current.Frame, _ = strconv.Atoi(value)
			case "fps":
				current.FPS, _ = strconv.ParseFloat(value, 64)
			case "out_time_us":
				us, _ := strconv.ParseFloat(value, 64)
				current.Seconds = us / 1e6
				if totalDuration > 0 {
					current.Progress = current.Seconds / totalDuration * 100
				}
			case "speed":
				current.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
			case "progress":
				progressCallback(current)
				if value == "end" {
					return
				}
				snapshot := *current
				current = &snapshot
			}
		}
	}()

	return cmd.Wait()
}
