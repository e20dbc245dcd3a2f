package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"timelinehost/config"
	"timelinehost/models"
	"timelinehost/pkg/logger"
	"timelinehost/pkg/video_engine"
	"timelinehost/services"
)

// VideoController is the media file surface backing the timeline: raw
// ingest of source files, the thumbnail endpoint clip previews load
// frames from ({base}{file_id}/{frame}/), waveform extraction for a
// clip's audio_data, and download/list/delete over the stored files
// and render outputs.
type VideoController struct {
	ffmpeg            *video_engine.FFmpegProcessor
	atomicClipService *services.AtomicClipService
}

func NewVideoController() *VideoController {
	return &VideoController{
		ffmpeg:            video_engine.NewFFmpegProcessor(config.AppConfig),
		atomicClipService: services.NewAtomicClipService(),
	}
}

// resolveFileID maps a file_id to its stored path, refusing anything
// that would escape the upload directory.
func resolveFileID(fileID string) (string, error) {
	if fileID == "" || fileID != filepath.Base(fileID) {
		return "", fmt.Errorf("invalid file id")
	}
	path := filepath.Join(config.AppConfig.Storage.UploadPath, fileID)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found")
	}
	return path, nil
}

// @Summary Upload a media file
// @Description Ingest a source file: store it, probe its streams, and register it in the clip catalogue under a fresh file_id
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Media file"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/videos/upload [post]
func (vc *VideoController) UploadVideo(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No media file provided"})
		return
	}
	file.Close()

	uploadDir := config.AppConfig.Storage.UploadPath
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare storage"})
		return
	}

	fileID := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	filePath := filepath.Join(uploadDir, fileID)
	if err := c.SaveUploadedFile(header, filePath); err != nil {
		logger.Errorf("Failed to save upload %s: %v", fileID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	info, err := vc.ffmpeg.ProbeMedia(filePath)
	if err != nil {
		os.Remove(filePath)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to analyze media", "details": err.Error()})
		return
	}

	// Raw ingest registers a minimal catalogue row so the file_id
	// resolves immediately; the richer metadata endpoint is the
	// atomic-clips upload.
	clip, err := vc.atomicClipService.CreateAtomicClip(userID.(uint),
		&models.AtomicClipCreateRequest{Title: header.Filename},
		fileID, filePath, info)
	if err != nil {
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Infof("Media ingested: %s (clip %d)", fileID, clip.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Media uploaded successfully",
		"file_id": fileID,
		"clip_id": clip.ID,
		"reader":  info.Reader,
		"media":   info,
	})
}

// @Summary Serve a clip thumbnail frame
// @Description Extract (and cache) one frame of a source file, addressed as {file_id}/{frame}/ the way clip thumbnail URLs are built
// @Tags videos
// @Produce image/jpeg
// @Param file_id path string true "File ID"
// @Param frame path int true "1-based frame number"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /thumbnails/{file_id}/{frame}/ [get]
func (vc *VideoController) Thumbnail(c *gin.Context) {
	fileID := c.Param("file_id")
	frame, err := strconv.Atoi(c.Param("frame"))
	if err != nil || frame < 1 {
		frame = 1
	}

	filePath, err := resolveFileID(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	clip, err := vc.atomicClipService.GetByFileID(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	thumbPath := filepath.Join(config.AppConfig.Storage.ThumbnailPath, fileID, fmt.Sprintf("%d.jpg", frame))
	if _, err := os.Stat(thumbPath); err != nil {
		if err := vc.ffmpeg.ExtractFrame(filePath, frame, clip.ReaderInfo().FPS, thumbPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract frame"})
			return
		}
	}

	// The client appends a random nonce to defeat caching when a clip's
	// trim point moves; the extracted frame itself is immutable.
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(thumbPath)
}

// @Summary Get a file's waveform samples
// @Description Decode a file's audio into peak samples, the array a timeline clip carries as ui.audio_data
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param filename path string true "File ID"
// @Param samples query int false "Sample count" default(200)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/videos/{filename}/waveform [get]
func (vc *VideoController) Waveform(c *gin.Context) {
	fileID := c.Param("filename")
	filePath, err := resolveFileID(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	samples, _ := strconv.Atoi(c.DefaultQuery("samples", "200"))

	// The ingest worker pre-warms a default-resolution waveform; serve
	// that when it matches the request.
	if samples == 200 {
		cached := filepath.Join(config.AppConfig.Storage.ThumbnailPath, fileID, "waveform.json")
		if raw, err := os.ReadFile(cached); err == nil {
			var data []float64
			if json.Unmarshal(raw, &data) == nil {
				c.JSON(http.StatusOK, gin.H{"file_id": fileID, "samples": data})
				return
			}
		}
	}

	data, err := vc.ffmpeg.ExtractWaveform(filePath, samples)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to extract waveform", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_id": fileID,
		"samples": data,
	})
}

// @Summary Get a file's reader descriptor
// @Description Resolve a file_id into the reader block a timeline clip referencing it carries
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param filename path string true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/videos/{filename}/reader [get]
func (vc *VideoController) Reader(c *gin.Context) {
	clip, err := vc.atomicClipService.GetByFileID(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_id": clip.FileID,
		"reader":  clip.ReaderInfo(),
	})
}

// @Summary Download a render output
// @Tags videos
// @Produce application/octet-stream
// @Security BearerAuth
// @Param filename path string true "Output filename"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/videos/{filename}/download [get]
func (vc *VideoController) DownloadVideo(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
		return
	}

	filePath := filepath.Join(config.AppConfig.Storage.OutputPath, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Type", "application/octet-stream")
	c.File(filePath)
}

// @Summary List ingested media files
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/videos [get]
func (vc *VideoController) ListFiles(c *gin.Context) {
	files, err := listDir(config.AppConfig.Storage.UploadPath, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload directory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

// @Summary List render outputs
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/videos/outputs [get]
func (vc *VideoController) ListOutputFiles(c *gin.Context) {
	files, err := listDir(config.AppConfig.Storage.OutputPath, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read output directory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

func listDir(dir string, withDownloadURL bool) ([]map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []map[string]interface{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		f := map[string]interface{}{
			"name":     entry.Name(),
			"size":     info.Size(),
			"modified": info.ModTime(),
		}
		if withDownloadURL {
			f["download_url"] = fmt.Sprintf("/api/v1/videos/%s/download", entry.Name())
		} else {
			f["file_id"] = entry.Name()
		}
		files = append(files, f)
	}
	return files, nil
}

// @Summary Delete a stored file
// @Description Remove an ingested file (plus its cached thumbnails) or a render output
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param filename path string true "Filename"
// @Param type query string false "upload or output" default(upload)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/videos/{filename} [delete]
func (vc *VideoController) DeleteFile(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
		return
	}

	var filePath string
	if c.Query("type") == "output" {
		filePath = filepath.Join(config.AppConfig.Storage.OutputPath, filename)
	} else {
		filePath = filepath.Join(config.AppConfig.Storage.UploadPath, filename)
		// Cached thumbnail frames for this file go with it.
		os.RemoveAll(filepath.Join(config.AppConfig.Storage.ThumbnailPath, filename))
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// @Summary Media service health check
// @Tags videos
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/videos/health [get]
func (vc *VideoController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "media",
		"timestamp": time.Now(),
	})
}
