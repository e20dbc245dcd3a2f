package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timelinehost/internal/timeline/project"
	"timelinehost/middleware"
	"timelinehost/pkg/logger"
	"timelinehost/services"
)

type TimelineController struct {
	timelineService *services.TimelineService
}

func NewTimelineController() *TimelineController {
	return &TimelineController{
		timelineService: services.NewTimelineService(),
	}
}

// @Summary Get project timeline
// @Description Retrieve the full timeline tree for a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/projects/{id}/timeline [get]
func (c *TimelineController) GetTimeline(ctx *gin.Context) {
	projectID, err := parseProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	snap, err := c.timelineService.Snapshot(projectID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"timeline": snap})
}

// @Summary Replace project timeline
// @Description Load a full timeline tree, replacing the project wholesale (loadJson)
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param timeline body project.Project true "Full timeline tree"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/projects/{id}/timeline [put]
func (c *TimelineController) LoadTimeline(ctx *gin.Context) {
	projectID, err := parseProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var p project.Project
	if err := ctx.ShouldBindJSON(&p); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeline payload", "details": err.Error()})
		return
	}

	if err := c.timelineService.Load(projectID, &p); err != nil {
		logger.Errorf("Failed to load timeline for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load timeline"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Timeline loaded"})
}

// @Summary Apply a timeline diff
// @Description Apply an incremental JSON-diff action list to the project timeline
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/projects/{id}/timeline/diff [post]
func (c *TimelineController) ApplyDiff(ctx *gin.Context) {
	projectID, err := parseProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var body struct {
		Actions []project.DiffAction `json:"actions" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid diff payload", "details": err.Error()})
		return
	}

	snap, err := c.timelineService.ApplyDiff(projectID, body.Actions)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"timeline": snap})
}

// @Summary Open the timeline host bridge
// @Description Upgrade to a WebSocket carrying the host bridge's
// @Description JSON-RPC-style inbound/outbound frames for this project
// @Tags projects
// @Param id path int true "Project ID"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/v1/projects/{id}/timeline/ws [get]
func (c *TimelineController) ServeBridge(ctx *gin.Context) {
	projectID, err := parseProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	b, err := c.timelineService.Session(projectID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	fps, err := c.timelineService.FPS(projectID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if _, ok := middleware.GetUserID(ctx); !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := b.ServeWS(ctx.Writer, ctx.Request, fps); err != nil {
		logger.Warnf("timeline: bridge websocket closed for project %d: %v", projectID, err)
	}
}

func parseProjectID(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
