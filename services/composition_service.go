package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"timelinehost/internal/timeline/project"
	"timelinehost/models"
	"timelinehost/pkg/database"
	"timelinehost/pkg/video_engine"
)

// CompositionService runs the atomic-clip smart-composition engine
// over a user's catalogue. The compositor assembles its selections
// directly into a timeline project tree, so the result loads straight
// into the editor for hand refinement.
type CompositionService struct {
	db *gorm.DB
}

func NewCompositionService() *CompositionService {
	return &CompositionService{db: database.GetDB()}
}

// Algorithms lists the composition algorithm names the engine
// supports, matching the keys SmartCompositor registers internally.
func (s *CompositionService) Algorithms() []string {
	return []string{"smart_selection", "theme_based", "emotion_driven"}
}

// Generate scores and selects clips from a user's atomic clip library
// and returns the composition result together with its assembled
// timeline tree.
func (s *CompositionService) Generate(userID uint, algorithm string, requirements video_engine.CompositionRequirements) (*video_engine.CompositionResult, *project.Project, error) {
	var clips []models.AtomicClip
	query := s.db.Model(&models.AtomicClip{}).Where("user_id = ? AND status = ?", userID, "active")
	if err := query.Find(&clips).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load atomic clips: %w", err)
	}
	if len(clips) == 0 {
		return nil, nil, fmt.Errorf("no atomic clips available for composition")
	}

	compositor := video_engine.NewSmartCompositor(clips, requirements)
	result, err := compositor.GenerateComposition(context.Background(), algorithm)
	if err != nil {
		return nil, nil, err
	}

	return result, result.Project, nil
}
