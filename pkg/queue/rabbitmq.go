package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/streadway/amqp"
	"timelinehost/config"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/retime"
	"timelinehost/pkg/logger"
	"timelinehost/pkg/video_engine"
)

type RabbitMQClient struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queues     map[string]amqp.Queue
}

type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Priority  int                    `json:"priority"`
	Retry     int                    `json:"retry"`
	MaxRetry  int                    `json:"max_retry"`
	CreatedAt time.Time              `json:"created_at"`
}

type TaskHandler func(task *Task) error

var Queue *RabbitMQClient

func InitRabbitMQ(cfg *config.Config) error {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	Queue = &RabbitMQClient{
		connection: conn,
		channel:    ch,
		queues:     make(map[string]amqp.Queue),
	}

	// Declare default queues
	if err := Queue.declareQueues(); err != nil {
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	logger.Info("RabbitMQ connected successfully")
	return nil
}

func (r *RabbitMQClient) declareQueues() error {
	queueNames := []string{
		"media_ingest",
		"render_tasks",
		"thumbnail_generation",
		"waveform_resample",
	}

	for _, name := range queueNames {
		queue, err := r.channel.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			amqp.Table{
				"x-message-ttl":                 int32(30 * 60 * 1000), // 30 minutes
				"x-dead-letter-exchange":        "dlx",
				"x-dead-letter-routing-key":     "dlx." + name,
				"x-max-priority":                int32(10),
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		r.queues[name] = queue
	}

	// Declare dead letter exchange
	err := r.channel.ExchangeDeclare(
		"dlx",
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}

	return nil
}

func (r *RabbitMQClient) PublishTask(queueName string, task *Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	priority := uint8(task.Priority)
	if priority > 10 {
		priority = 10
	}

	err = r.channel.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     priority,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish task to queue %s: %w", queueName, err)
	}

	logger.Infof("Task published to queue %s: %s", queueName, task.ID)
	return nil
}

func (r *RabbitMQClient) ConsumeTask(queueName string, handler TaskHandler, concurrency int) error {
	// Set QoS for the channel
	err := r.channel.Qos(
		concurrency, // prefetch count
		0,           // prefetch size
		false,       // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := r.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	// Start consumer goroutines
	for i := 0; i < concurrency; i++ {
		go r.worker(msgs, handler, queueName)
	}

	logger.Infof("Started %d workers for queue %s", concurrency, queueName)
	return nil
}

func (r *RabbitMQClient) worker(msgs <-chan amqp.Delivery, handler TaskHandler, queueName string) {
	for msg := range msgs {
		var task Task
		if err := json.Unmarshal(msg.Body, &task); err != nil {
			logger.Errorf("Failed to unmarshal task from queue %s: %v", queueName, err)
			msg.Nack(false, false) // Dead letter
			continue
		}

		logger.Infof("Processing task %s from queue %s", task.ID, queueName)

		err := handler(&task)
		if err != nil {
			logger.Errorf("Task %s failed: %v", task.ID, err)

			// Retry logic
			if task.Retry < task.MaxRetry {
				task.Retry++
				if retryErr := r.PublishTask(queueName, &task); retryErr != nil {
					logger.Errorf("Failed to retry task %s: %v", task.ID, retryErr)
				} else {
					logger.Infof("Task %s queued for retry (%d/%d)", task.ID, task.Retry, task.MaxRetry)
				}
			}

			msg.Nack(false, false) // Dead letter after max retries
		} else {
			logger.Infof("Task %s completed successfully", task.ID)
			msg.Ack(false)
		}
	}
}

func (r *RabbitMQClient) CreateTask(taskType string, payload map[string]interface{}, priority int) *Task {
	return &Task{
		ID:        generateTaskID(),
		Type:      taskType,
		Payload:   payload,
		Priority:  priority,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: time.Now(),
	}
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.connection != nil {
		return r.connection.Close()
	}
	return nil
}

// Task type constants
const (
	TaskTypeMediaIngest      = "media_ingest"
	TaskTypeRenderVideo      = "render_video"
	TaskTypeClipThumbnail    = "clip_thumbnail"
	TaskTypeWaveformResample = "waveform_resample"
)

// PublishMediaIngestTask pre-warms a freshly uploaded file's derived
// artifacts off the request path: its first-frame thumbnail and, for
// audio-bearing media, its default waveform cache.
func PublishMediaIngestTask(fileID string, fps project.Rational, hasAudio bool) error {
	task := Queue.CreateTask(TaskTypeMediaIngest, map[string]interface{}{
		"file_id":   fileID,
		"fps_num":   fps.Num,
		"fps_den":   fps.Den,
		"has_audio": hasAudio,
	}, 4)

	return Queue.PublishTask("media_ingest", task)
}

// PublishRenderTask enqueues a render job. payload carries the frozen
// timeline snapshot plus the render parameters, flattened so the
// handler can read them directly.
func PublishRenderTask(taskID string, payload map[string]interface{}) error {
	merged := map[string]interface{}{"task_id": taskID}
	for k, v := range payload {
		merged[k] = v
	}
	task := Queue.CreateTask(TaskTypeRenderVideo, merged, 8)

	return Queue.PublishTask("render_tasks", task)
}

// PublishTimelineThumbnailTask enqueues a regeneration of a timeline
// clip's preview frame (the bridge's updateThumbnail cache-busting
// path), routed to ThumbnailTaskHandler's "clip_thumbnail" branch.
func PublishTimelineThumbnailTask(clipID, fileID string, frame int, fps project.Rational) error {
	task := Queue.CreateTask("clip_thumbnail", map[string]interface{}{
		"clip_id": clipID,
		"file_id": fileID,
		"frame":   frame,
		"fps_num": fps.Num,
		"fps_den": fps.Den,
	}, 3)

	return Queue.PublishTask("thumbnail_generation", task)
}

// PublishWaveformResampleTask enqueues a background recompute of a
// retimed clip's audio waveform sample array. samples carries the
// pre-retime audio_data array, since WaveformResampleHandler has no
// route back into the timeline store to fetch it itself.
func PublishWaveformResampleTask(projectID uint, clipID string, samples []float64, originalDuration, newDuration float64) error {
	task := Queue.CreateTask("waveform_resample", map[string]interface{}{
		"project_id":        float64(projectID),
		"clip_id":           clipID,
		"samples":           samples,
		"original_duration": originalDuration,
		"new_duration":      newDuration,
	}, 5)

	return Queue.PublishTask("waveform_resample", task)
}

// WaveformSink receives a resampled waveform for a clip. The service
// layer registers one at startup; pkg/queue cannot import services
// directly (services already imports pkg/queue), so the write-back
// goes through this callback instead.
type WaveformSink func(projectID uint, clipID string, samples []float64)

var waveformSink WaveformSink

// RegisterWaveformSink installs the callback WaveformResampleHandler
// hands finished waveforms to. Call once during startup, before
// workers consume the waveform_resample queue.
func RegisterWaveformSink(sink WaveformSink) {
	waveformSink = sink
}

func generateTaskID() string {
	return fmt.Sprintf("task_%d", time.Now().UnixNano())
}

// Task Handlers

// MediaIngestHandler pre-extracts a new file's first-frame thumbnail
// and, when it carries audio, its default waveform cache, so the first
// timeline clip placed over it renders without an extraction stall.
func MediaIngestHandler(task *Task) error {
	fileID, ok := task.Payload["file_id"].(string)
	if !ok {
		return fmt.Errorf("invalid file_id in media ingest task payload")
	}
	fpsNum, _ := task.Payload["fps_num"].(float64)
	fpsDen, _ := task.Payload["fps_den"].(float64)
	hasAudio, _ := task.Payload["has_audio"].(bool)
	fps := project.Rational{Num: int(fpsNum), Den: int(fpsDen)}

	cfg := config.AppConfig
	ffmpeg := video_engine.NewFFmpegProcessor(cfg)
	src := filepath.Join(cfg.Storage.UploadPath, filepath.Base(fileID))
	cacheDir := filepath.Join(cfg.Storage.ThumbnailPath, filepath.Base(fileID))

	if err := ffmpeg.ExtractFrame(src, 1, fps, filepath.Join(cacheDir, "1.jpg")); err != nil {
		logger.Warnf("media ingest: thumbnail pre-warm failed for %s: %v", fileID, err)
	}

	if hasAudio {
		samples, err := ffmpeg.ExtractWaveform(src, 200)
		if err != nil {
			logger.Warnf("media ingest: waveform pre-warm failed for %s: %v", fileID, err)
			return nil
		}
		if err := writeWaveformCache(cacheDir, samples); err != nil {
			logger.Warnf("media ingest: waveform cache write failed for %s: %v", fileID, err)
		}
	}

	return nil
}

func writeWaveformCache(cacheDir string, samples []float64) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cacheDir, "waveform.json"), data, 0644)
}

// RenderTaskHandler renders the timeline snapshot frozen into the
// task payload at enqueue time. Progress and the final status land on
// the render-task row through the sink the render service registers,
// the same no-reverse-import pattern the waveform worker uses.
func RenderTaskHandler(task *Task) error {
	taskID, ok := task.Payload["task_id"].(string)
	if !ok {
		return fmt.Errorf("invalid task_id in task payload")
	}

	raw, err := json.Marshal(task.Payload["timeline"])
	if err != nil {
		return fmt.Errorf("invalid timeline in task payload: %w", err)
	}
	var p project.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid timeline in task payload: %w", err)
	}

	options := &video_engine.RenderOptions{}
	if rawOpts, err := json.Marshal(task.Payload); err == nil {
		json.Unmarshal(rawOpts, options)
	}
	if res, ok := task.Payload["resolution"].(string); ok {
		fmt.Sscanf(res, "%dx%d", &options.Width, &options.Height)
	}

	cfg := config.AppConfig
	outputName := taskID + ".mp4"
	outputPath := filepath.Join(cfg.Storage.OutputPath, outputName)
	resolve := func(fileID string) (string, error) {
		return filepath.Join(cfg.Storage.UploadPath, filepath.Base(fileID)), nil
	}

	logger.Infof("Rendering timeline for task %s -> %s", taskID, outputPath)
	reportRenderProgress(taskID, "rendering", 0, "")

	err = video_engine.NewFFmpegProcessor(cfg).RenderTimeline(&p, resolve, outputPath,
		options, func(progress *video_engine.RenderProgress) {
			reportRenderProgress(taskID, "rendering", int(progress.Progress), "")
		})
	if err != nil {
		reportRenderProgress(taskID, "failed", 0, err.Error())
		return err
	}

	reportRenderProgress(taskID, "completed", 100, outputPath)
	return nil
}

// RenderSink receives render status transitions. The render service
// registers one at startup to write them onto its task rows; without
// a sink transitions are only logged.
type RenderSink func(taskID, status string, progress int, detail string)

var renderSink RenderSink

// RegisterRenderSink installs the callback RenderTaskHandler reports
// through. Call once during startup, before workers consume the
// render_tasks queue.
func RegisterRenderSink(sink RenderSink) {
	renderSink = sink
}

func reportRenderProgress(taskID, status string, progress int, detail string) {
	if renderSink != nil {
		renderSink(taskID, status, progress, detail)
		return
	}
	logger.Debugf("render %s: %s %d%% %s", taskID, status, progress, detail)
}

func ThumbnailTaskHandler(task *Task) error {
	if task.Type != TaskTypeClipThumbnail {
		return fmt.Errorf("unknown thumbnail task type %q", task.Type)
	}
	return timelineClipThumbnailHandler(task)
}

// timelineClipThumbnailHandler regenerates a timeline clip's preview
// thumbnail (bridge.ThumbnailURL's nonce busts the client's cache,
// this is the job that makes the new frame actually exist).
func timelineClipThumbnailHandler(task *Task) error {
	clipID, ok := task.Payload["clip_id"].(string)
	if !ok {
		return fmt.Errorf("invalid clip_id in timeline thumbnail task payload")
	}
	fileID, ok := task.Payload["file_id"].(string)
	if !ok {
		return fmt.Errorf("invalid file_id in timeline thumbnail task payload")
	}
	frame, _ := task.Payload["frame"].(float64)
	fpsNum, _ := task.Payload["fps_num"].(float64)
	fpsDen, _ := task.Payload["fps_den"].(float64)
	fps := project.Rational{Num: int(fpsNum), Den: int(fpsDen)}

	logger.Infof("Regenerating timeline thumbnail for clip %s (file %s, frame %d)", clipID, fileID, int(frame))

	cfg := config.AppConfig
	ffmpeg := video_engine.NewFFmpegProcessor(cfg)
	src := filepath.Join(cfg.Storage.UploadPath, filepath.Base(fileID))
	out := filepath.Join(cfg.Storage.ThumbnailPath, filepath.Base(fileID), fmt.Sprintf("%d.jpg", int(frame)))
	return ffmpeg.ExtractFrame(src, int(frame), fps, out)
}

// WaveformResampleHandler recomputes a retimed clip's audio waveform
// sample array via internal/timeline/retime.ResampleWaveform off the
// request path.
func WaveformResampleHandler(task *Task) error {
	clipID, ok := task.Payload["clip_id"].(string)
	if !ok {
		return fmt.Errorf("invalid clip_id in waveform resample task payload")
	}
	originalDuration, _ := task.Payload["original_duration"].(float64)
	newDuration, _ := task.Payload["new_duration"].(float64)

	raw, _ := task.Payload["samples"].([]interface{})
	samples := make([]float64, len(raw))
	for i, v := range raw {
		samples[i], _ = v.(float64)
	}

	resampled := retime.ResampleWaveform(samples, originalDuration, newDuration)

	logger.Infof("Resampled waveform for clip %s: %.3fs -> %.3fs (%d -> %d samples)",
		clipID, originalDuration, newDuration, len(samples), len(resampled))

	if waveformSink != nil {
		projectID, _ := task.Payload["project_id"].(float64)
		waveformSink(uint(projectID), clipID, resampled)
	}

	return nil
}