package services

import (
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"timelinehost/models"
	"timelinehost/pkg/database"
	"timelinehost/pkg/logger"
)

// ProjectService is project CRUD over models.Project, following the
// same shape as AtomicClipService. Timeline content itself is owned by
// TimelineService; this service only manages the project record's
// non-timeline metadata (title, dimensions, status, ownership).
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService() *ProjectService {
	return &ProjectService{db: database.GetDB()}
}

func (s *ProjectService) CreateProject(userID uint, req *models.ProjectCreateRequest) (*models.Project, error) {
	p := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Width:       req.Width,
		Height:      req.Height,
		FrameRate:   req.FrameRate,
		TemplateID:  req.TemplateID,
		UserID:      userID,
		Status:      "draft",
		Version:     1,
	}
	if p.Width == 0 {
		p.Width = 1920
	}
	if p.Height == 0 {
		p.Height = 1080
	}
	if p.FrameRate == 0 {
		p.FrameRate = 30
	}
	p.FPSNum, p.FPSDen = rationalizeFrameRate(p.FrameRate)

	if err := s.db.Create(p).Error; err != nil {
		logger.Errorf("Failed to create project: %v", err)
		return nil, errors.New("failed to create project")
	}

	return p, nil
}

func (s *ProjectService) GetUserProjects(userID uint, page, limit int) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get projects: %w", err)
	}

	return projects, total, nil
}

func (s *ProjectService) GetProject(projectID, userID uint) (*models.Project, error) {
	var p models.Project
	if err := s.db.Where("id = ? AND user_id = ?", projectID, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("project not found")
		}
		return nil, errors.New("failed to get project")
	}
	return &p, nil
}

func (s *ProjectService) UpdateProject(projectID, userID uint, req *models.ProjectUpdateRequest) (*models.Project, error) {
	var p models.Project
	if err := s.db.Where("id = ? AND user_id = ?", projectID, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("project not found")
		}
		return nil, errors.New("failed to get project")
	}

	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Width != 0 {
		p.Width = req.Width
	}
	if req.Height != 0 {
		p.Height = req.Height
	}
	if req.FrameRate != 0 {
		p.FrameRate = req.FrameRate
		p.FPSNum, p.FPSDen = rationalizeFrameRate(req.FrameRate)
	}
	if req.Timeline != nil {
		p.Timeline = req.Timeline
	}
	if req.Settings != nil {
		p.Settings = req.Settings
	}
	if req.Status != "" {
		p.Status = req.Status
	}

	if err := s.db.Save(&p).Error; err != nil {
		logger.Errorf("Failed to update project: %v", err)
		return nil, errors.New("failed to update project")
	}

	return &p, nil
}

func (s *ProjectService) DeleteProject(projectID, userID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", projectID, userID).Delete(&models.Project{})
	if result.Error != nil {
		logger.Errorf("Failed to delete project: %v", result.Error)
		return errors.New("failed to delete project")
	}
	if result.RowsAffected == 0 {
		return errors.New("project not found")
	}
	return nil
}

// rationalizeFrameRate converts a display frame rate into the exact
// {num, den} pair the timeline engine quantises with. NTSC-family
// rates (23.976, 29.97, 59.94) are /1001 rationals; everything else a
// user can enter is a whole number of frames per second.
func rationalizeFrameRate(fr float64) (num, den int) {
	if fr == math.Trunc(fr) {
		return int(fr), 1
	}
	return int(math.Round(fr * 1001)), 1001
}
