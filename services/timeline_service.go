package services

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"timelinehost/config"
	"timelinehost/internal/timeline/bridge"
	"timelinehost/internal/timeline/project"
	"timelinehost/internal/timeline/timemath"
	"timelinehost/models"
	"timelinehost/pkg/cache"
	"timelinehost/pkg/database"
	"timelinehost/pkg/logger"
	"timelinehost/pkg/queue"
)

// TimelineService owns one live internal/timeline/bridge.Bridge per open
// project, the same way the engine's Qt host keeps a single bound
// instance per window, and persists its Store back to
// models.Project.Timeline on every mutating call.
type TimelineService struct {
	db  *gorm.DB
	log *logrus.Entry

	mu       sync.Mutex
	sessions map[uint]*bridge.Bridge
	rates    map[uint]timemath.FPS
}

var (
	timelineServiceOnce sync.Once
	timelineService     *TimelineService
)

// NewTimelineService returns the process-wide timeline service. Live
// bridge sessions are keyed per project in one place, so every caller
// (the timeline controller, the render service, the waveform worker's
// sink) observes the same replica, and the first call registers that
// sink with the queue package.
func NewTimelineService() *TimelineService {
	timelineServiceOnce.Do(func() {
		timelineService = &TimelineService{
			db:       database.GetDB(),
			log:      logger.Component("timeline"),
			sessions: make(map[uint]*bridge.Bridge),
			rates:    make(map[uint]timemath.FPS),
		}
		queue.RegisterWaveformSink(timelineService.SetClipWaveform)
	})
	return timelineService
}

// Session returns the live Bridge for a project, loading its persisted
// Timeline JSON into a fresh Store the first time the project is
// touched in this process.
func (s *TimelineService) Session(projectID uint) (*bridge.Bridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.sessions[projectID]; ok {
		return b, nil
	}

	var rec models.Project
	if err := s.db.First(&rec, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("project not found")
		}
		return nil, err
	}

	fps := projectFPS(&rec)
	s.rates[projectID] = fps

	store := project.NewStore()
	if p := s.cachedTimeline(projectID); p != nil {
		store.Load(p)
	} else if len(rec.Timeline) > 0 {
		p, err := decodeTimeline(rec.Timeline)
		if err != nil {
			s.log.Warnf("discarding unreadable stored timeline for project %d: %v", projectID, err)
		} else {
			store.Load(p)
		}
	}
	store.Mutate(func(p *project.Project) {
		p.FPS = project.Rational{Num: fps.Num, Den: fps.Den}
	})

	b := bridge.New(store)
	if cfg := config.AppConfig; cfg != nil {
		b.SnapThresholdPx = cfg.Timeline.SnapThresholdPx
		b.MinTimelineLength = cfg.Timeline.MinTimelineLength
		b.MinTimelinePad = cfg.Timeline.MinTimelinePad
	}
	s.sessions[projectID] = b
	return b, nil
}

// FPS returns the rational frame rate the timeline engine quantises a
// project with, read off the project row when its session loads.
func (s *TimelineService) FPS(projectID uint) (timemath.FPS, error) {
	s.mu.Lock()
	fps, ok := s.rates[projectID]
	s.mu.Unlock()
	if ok {
		return fps, nil
	}
	if _, err := s.Session(projectID); err != nil {
		return timemath.FPS{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates[projectID], nil
}

// projectFPS resolves a project row's rational rate, falling back to
// the configured default for rows that predate the FPSNum/FPSDen
// columns.
func projectFPS(rec *models.Project) timemath.FPS {
	if rec.FPSNum > 0 && rec.FPSDen > 0 {
		return timemath.FPS{Num: rec.FPSNum, Den: rec.FPSDen}
	}
	if cfg := config.AppConfig; cfg != nil && cfg.Timeline.DefaultFPSNum > 0 && cfg.Timeline.DefaultFPSDen > 0 {
		return timemath.FPS{Num: cfg.Timeline.DefaultFPSNum, Den: cfg.Timeline.DefaultFPSDen}
	}
	return timemath.FPS{Num: 30, Den: 1}
}

// Snapshot returns the current in-memory project tree for a project,
// loading it first if this process has not yet touched it.
func (s *TimelineService) Snapshot(projectID uint) (*project.Project, error) {
	b, err := s.Session(projectID)
	if err != nil {
		return nil, err
	}
	return b.Store.Snapshot(), nil
}

// ApplyDiff runs the JSON-diff apply algorithm against the project's
// live Store and persists the result.
func (s *TimelineService) ApplyDiff(projectID uint, actions []project.DiffAction) (*project.Project, error) {
	b, err := s.Session(projectID)
	if err != nil {
		return nil, err
	}
	before := b.Store.Snapshot()
	if err := b.ApplyJSONDiff(actions); err != nil {
		return nil, err
	}
	snap := b.Store.Snapshot()
	s.queueClipSideEffects(projectID, before, snap)
	if err := s.persist(projectID, snap); err != nil {
		s.log.Errorf("failed to persist project %d after diff: %v", projectID, err)
	}
	return snap, nil
}

// queueClipSideEffects compares a project before and after a diff apply
// and enqueues the background jobs a changed clip implies: a moved trim
// point invalidates its cached thumbnail, and a changed duration
// under retime mode invalidates its cached waveform.
func (s *TimelineService) queueClipSideEffects(projectID uint, before, after *project.Project) {
	prior := make(map[string]*project.Clip, len(before.Clips))
	for _, c := range before.Clips {
		prior[c.ID] = c
	}

	for _, c := range after.Clips {
		old, ok := prior[c.ID]
		if !ok {
			continue
		}

		if old.Start != c.Start {
			frame := int(c.Reader.FPS.Value()*c.Start) + 1
			if err := s.QueueThumbnailRefresh(c.ID, c.FileID, frame, c.Reader.FPS); err != nil {
				s.log.Warnf("failed to queue thumbnail refresh for clip %s: %v", c.ID, err)
			}
		}

		oldDuration := old.End - old.Start
		newDuration := c.End - c.Start
		if oldDuration > 0 && oldDuration != newDuration {
			if err := s.QueueWaveformResample(projectID, c.ID, old.UI.AudioData, oldDuration, newDuration); err != nil {
				s.log.Warnf("failed to queue waveform resample for clip %s: %v", c.ID, err)
			}
		}
	}
}

// Load replaces a project's timeline wholesale and persists it.
func (s *TimelineService) Load(projectID uint, p *project.Project) error {
	b, err := s.Session(projectID)
	if err != nil {
		return err
	}
	b.LoadJSON(p)
	return s.persist(projectID, b.Store.Snapshot())
}

func (s *TimelineService) persist(projectID uint, p *project.Project) error {
	blob, err := encodeTimeline(p)
	if err != nil {
		return err
	}
	err = s.db.Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"timeline": blob,
			"duration": p.Duration,
			"version":  gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return err
	}

	// Write-through so sibling replicas opening this project pick up
	// the freshest tree without waiting on the database row.
	if cache.Cache != nil {
		if err := cache.Cache.Set(cache.TimelineSnapshotKey(projectID), blob, 30*time.Minute); err != nil {
			s.log.Debugf("snapshot cache write failed for project %d: %v", projectID, err)
		}
	}
	return nil
}

// cachedTimeline returns the write-through snapshot for a project, or
// nil when the cache is cold or unreadable.
func (s *TimelineService) cachedTimeline(projectID uint) *project.Project {
	if cache.Cache == nil {
		return nil
	}
	var blob models.JSON
	if err := cache.Cache.GetJSON(cache.TimelineSnapshotKey(projectID), &blob); err != nil {
		return nil
	}
	p, err := decodeTimeline(blob)
	if err != nil {
		s.log.Warnf("discarding unreadable cached timeline for project %d: %v", projectID, err)
		return nil
	}
	return p
}

// QueueThumbnailRefresh enqueues a thumbnail regeneration job for a
// clip whose source frame changed, mirroring updateThumbnail's
// cache-busting nonce but doing the ffmpeg-frame-extract work
// off the request path on the thumbnail_generation worker pool.
func (s *TimelineService) QueueThumbnailRefresh(clipID, fileID string, frame int, fps project.Rational) error {
	if queue.Queue == nil {
		return nil
	}
	return queue.PublishTimelineThumbnailTask(clipID, fileID, frame, fps)
}

// QueueWaveformResample enqueues a background recompute of a retimed
// clip's audio waveform samples (internal/timeline/retime), since
// resampling a full-resolution waveform array is too slow to do
// synchronously inside the diff-apply request. samples is the clip's
// pre-retime audio_data array, carried in the task payload since the
// worker has no access back into this package's Store (pkg/queue must
// not import services).
func (s *TimelineService) QueueWaveformResample(projectID uint, clipID string, samples []float64, originalDuration, newDuration float64) error {
	if queue.Queue == nil {
		return nil
	}
	return queue.PublishWaveformResampleTask(projectID, clipID, samples, originalDuration, newDuration)
}

// SetClipWaveform writes a freshly resampled waveform back onto a
// clip's transient audio_data and persists the project. It is the
// queue package's WaveformSink: registered at startup so the
// waveform_resample worker can reach the live store without pkg/queue
// importing this package.
func (s *TimelineService) SetClipWaveform(projectID uint, clipID string, samples []float64) {
	b, err := s.Session(projectID)
	if err != nil {
		s.log.Warnf("dropping resampled waveform for unknown project %d: %v", projectID, err)
		return
	}
	found := false
	b.Store.Mutate(func(p *project.Project) {
		if c := p.ClipByID(clipID); c != nil {
			c.UI.AudioData = samples
			found = true
		}
	})
	if !found {
		s.log.Debugf("resampled waveform for unknown clip %s in project %d", clipID, projectID)
		return
	}
	if err := s.persist(projectID, b.Store.Snapshot()); err != nil {
		s.log.Errorf("failed to persist waveform for project %d: %v", projectID, err)
	}
}

func decodeTimeline(blob models.JSON) (*project.Project, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return nil, err
	}
	var p project.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeTimeline(p *project.Project) (models.JSON, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m models.JSON
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
