package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timelinehost/middleware"
	"timelinehost/models"
	"timelinehost/pkg/logger"
	"timelinehost/services"
)

type RenderController struct {
	renderService *services.RenderService
}

func NewRenderController() *RenderController {
	return &RenderController{
		renderService: services.NewRenderService(),
	}
}

// @Summary Create a render task
// @Description Enqueue a render of a project's current timeline snapshot
// @Tags render
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RenderTaskCreateRequest true "Render task parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/render/tasks [post]
func (c *RenderController) CreateRenderTask(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.RenderTaskCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	task, err := c.renderService.CreateRenderTask(userID, &req)
	if err != nil {
		logger.Errorf("Failed to create render task: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Render task created",
		"task":    task,
	})
}

// @Summary List the user's render tasks
// @Tags render
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/render/tasks [get]
func (c *RenderController) GetUserRenderTasks(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	tasks, total, err := c.renderService.GetUserRenderTasks(userID, page, limit)
	if err != nil {
		logger.Errorf("Failed to list render tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list render tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// @Summary Get a render task's status
// @Tags render
// @Produce json
// @Security BearerAuth
// @Param id path string true "Render task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/render/tasks/{id} [get]
func (c *RenderController) GetRenderTask(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := c.renderService.GetRenderTask(ctx.Param("id"), userID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

// @Summary Cancel a render task
// @Tags render
// @Produce json
// @Security BearerAuth
// @Param id path string true "Render task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/render/tasks/{id}/cancel [post]
func (c *RenderController) CancelRenderTask(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := c.renderService.CancelRenderTask(ctx.Param("id"), userID); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Render task cancelled"})
}
