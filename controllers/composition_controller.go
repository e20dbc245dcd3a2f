package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timelinehost/middleware"
	"timelinehost/pkg/logger"
	"timelinehost/pkg/video_engine"
	"timelinehost/services"
)

type CompositionController struct {
	compositionService *services.CompositionService
}

func NewCompositionController() *CompositionController {
	return &CompositionController{
		compositionService: services.NewCompositionService(),
	}
}

type generateCompositionRequest struct {
	Algorithm    string                                 `json:"algorithm" binding:"required,oneof=smart_selection theme_based emotion_driven"`
	Requirements video_engine.CompositionRequirements `json:"requirements"`
}

// @Summary Generate a smart composition
// @Description Score and arrange a user's atomic clip library into a proposed timeline
// @Tags composition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body generateCompositionRequest true "Algorithm and composition requirements"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/composition/generate [post]
func (c *CompositionController) GenerateComposition(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req generateCompositionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, timeline, err := c.compositionService.Generate(userID, req.Algorithm, req.Requirements)
	if err != nil {
		logger.Errorf("Failed to generate composition: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"composition": result,
		"timeline":    timeline,
	})
}

// @Summary List composition algorithms
// @Description List the algorithm names GenerateComposition accepts
// @Tags composition
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/composition/algorithms [get]
func (c *CompositionController) GetAlgorithms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"algorithms": c.compositionService.Algorithms()})
}
