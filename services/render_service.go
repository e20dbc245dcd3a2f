package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"timelinehost/models"
	"timelinehost/pkg/database"
	"timelinehost/pkg/logger"
	"timelinehost/pkg/queue"
)

// RenderService enqueues render_tasks jobs against a frozen copy of a
// project's timeline JSON. It stays adjacent to the live timeline
// engine: a render consumes a snapshot taken at enqueue time and never
// feeds back into the engine's live-editing invariants.
type RenderService struct {
	db              *gorm.DB
	timelineService *TimelineService
}

var (
	renderServiceOnce sync.Once
	renderService     *RenderService
)

// NewRenderService returns the process-wide render service; the first
// call registers the sink the render worker reports status and
// progress through (pkg/queue must not import this package directly).
func NewRenderService() *RenderService {
	renderServiceOnce.Do(func() {
		renderService = &RenderService{
			db:              database.GetDB(),
			timelineService: NewTimelineService(),
		}
		queue.RegisterRenderSink(renderService.applyRenderStatus)
	})
	return renderService
}

// applyRenderStatus writes a worker-reported transition onto the task
// row. A completed render records its output path; a failed one its
// error. Cancelled tasks are left alone so a late worker report cannot
// resurrect them.
func (s *RenderService) applyRenderStatus(taskID, status string, progress int, detail string) {
	updates := map[string]interface{}{"progress": progress}
	switch status {
	case "rendering":
		updates["status"] = "processing"
	case "completed":
		updates["status"] = "completed"
		updates["output_path"] = detail
		updates["completed_at"] = time.Now()
	case "failed":
		updates["status"] = "failed"
		updates["error_message"] = detail
	}

	err := s.db.Model(&models.RenderTask{}).
		Where("task_id = ? AND status <> ?", taskID, "cancelled").
		Updates(updates).Error
	if err != nil {
		logger.Errorf("Failed to record render status for %s: %v", taskID, err)
	}
}

func (s *RenderService) CreateRenderTask(userID uint, req *models.RenderTaskCreateRequest) (*models.RenderTask, error) {
	snap, err := s.timelineService.Snapshot(req.ProjectID)
	if err != nil {
		return nil, err
	}

	var rec models.Project
	if err := s.db.Select("version").First(&rec, req.ProjectID).Error; err != nil {
		return nil, errors.New("project not found")
	}

	task := &models.RenderTask{
		TaskID:       fmt.Sprintf("render_%d_%d", req.ProjectID, time.Now().UnixNano()),
		Status:       "pending",
		Priority:     req.Priority,
		OutputFormat: req.OutputFormat,
		Quality:      req.Quality,
		Resolution:   req.Resolution,
		FrameRate:    req.FrameRate,
		Duration:     snap.Duration,
		TimelineVersion: rec.Version,
		ProjectID:    req.ProjectID,
		UserID:       userID,
	}
	if task.Priority == 0 {
		task.Priority = 5
	}

	if err := s.db.Create(task).Error; err != nil {
		logger.Errorf("Failed to create render task: %v", err)
		return nil, errors.New("failed to create render task")
	}

	if queue.Queue != nil {
		if err := queue.PublishRenderTask(task.TaskID, map[string]interface{}{
			"project_id":    req.ProjectID,
			"output_format": req.OutputFormat,
			"quality":       req.Quality,
			"resolution":    req.Resolution,
			"frame_rate":    req.FrameRate,
			"timeline":      snap,
		}); err != nil {
			logger.Errorf("Failed to publish render task %s: %v", task.TaskID, err)
		}
	}

	return task, nil
}

func (s *RenderService) GetUserRenderTasks(userID uint, page, limit int) ([]models.RenderTask, int64, error) {
	var tasks []models.RenderTask
	var total int64

	query := s.db.Model(&models.RenderTask{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count render tasks: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get render tasks: %w", err)
	}

	return tasks, total, nil
}

func (s *RenderService) GetRenderTask(taskID string, userID uint) (*models.RenderTask, error) {
	var task models.RenderTask
	if err := s.db.Where("task_id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("render task not found")
		}
		return nil, errors.New("failed to get render task")
	}
	return &task, nil
}

func (s *RenderService) CancelRenderTask(taskID string, userID uint) error {
	result := s.db.Model(&models.RenderTask{}).
		Where("task_id = ? AND user_id = ? AND status IN ?", taskID, userID, []string{"pending", "processing"}).
		Update("status", "cancelled")
	if result.Error != nil {
		return fmt.Errorf("failed to cancel render task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("render task not found or already finished")
	}
	return nil
}
