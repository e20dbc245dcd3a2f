package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"timelinehost/pkg/logger"
)

func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		// The bridge WebSocket stays open for the editing session, so
		// latency would just measure how long the user kept the editor
		// open; log the upgrade without it.
		fields := logrus.Fields{
			"client_ip":   param.ClientIP,
			"timestamp":   param.TimeStamp.Format(time.RFC3339),
			"method":      param.Method,
			"path":        param.Path,
			"protocol":    param.Request.Proto,
			"status_code": param.StatusCode,
			"user_agent":  param.Request.UserAgent(),
			"error":       param.ErrorMessage,
		}
		if strings.HasSuffix(param.Path, "/timeline/ws") {
			logger.WithFields(fields).Info("Bridge session closed")
			return ""
		}
		fields["latency"] = param.Latency
		logger.WithFields(fields).Info("HTTP Request")
		return ""
	})
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"error": recovered,
			"path":  c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Panic recovered")
		
		c.JSON(500, gin.H{
			"error": "Internal server error",
		})
	})
}