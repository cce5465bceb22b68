package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	apperrors "github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
	"github.com/anime-shed/forgery-inspector-go/internal/service"
	"github.com/anime-shed/forgery-inspector-go/pkg/models"
)

const version = "1.0.0"

// uploadField is the multipart field carrying the image on upload routes
const uploadField = "image"

// NewHandler wires the HTTP routes. metrics may be nil.
func NewHandler(svc service.ForgeryAnalysisService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/config", getConfig(svc))
	r.GET("/metrics", getMetrics(metrics))
	r.POST("/analyze", analyzeURL(svc, cfg))
	r.POST("/analyze/upload", analyzeUpload(svc, cfg))
	r.POST("/visualize/:detector", visualize(svc, cfg))

	return r
}

func analyzeURL(svc service.ForgeryAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing forgery analysis request")

		var req models.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bodyErrorStatus(err), "invalid request format", err)
			return
		}

		resp, err := svc.AnalyzeURL(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "forgery analysis failed", err)
			return
		}

		logCompleted(resp, time.Since(startTime))
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeUpload(svc service.ForgeryAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		name, data, ok := readUpload(c)
		if !ok {
			return
		}

		resp, err := svc.AnalyzeUpload(ctx, name, data,
			splitList(c.PostForm("profiles")), splitList(c.PostForm("detectors")))
		if err != nil {
			respondError(c, determineStatusCode(err), "forgery analysis failed", err)
			return
		}

		logCompleted(resp, time.Since(startTime))
		c.JSON(http.StatusOK, resp)
	}
}

func visualize(svc service.ForgeryAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		_, data, ok := readUpload(c)
		if !ok {
			return
		}

		v, err := svc.Visualize(ctx, c.Param("detector"), data)
		if err != nil {
			respondError(c, determineStatusCode(err), "visualization failed", err)
			return
		}
		c.Data(http.StatusOK, v.ContentType, v.Body)
	}
}

// readUpload reads the multipart image field. It writes the error response
// itself and reports false on failure.
func readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		respondError(c, bodyErrorStatus(err), "missing image upload", err)
		return "", nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable image upload", err)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, bodyErrorStatus(err), "unreadable image upload", err)
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func getConfig(svc service.ForgeryAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Config())
	}
}

func getMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func logCompleted(resp *models.AnalysisResponse, duration time.Duration) {
	logger.WithFields(logrus.Fields{
		"analysis_id":        resp.ID,
		"source":             resp.Source,
		"format":             resp.Format,
		"final_score":        resp.FinalScore,
		"forged_profiles":    resp.ForgedProfiles,
		"processing_time_ms": duration.Milliseconds(),
	}).Info("Forgery analysis completed successfully")
}

// splitList reads a comma-separated form value; empty means unset.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

// bodyErrorStatus is 413 when the request body hit the size limit, 400 otherwise.
func bodyErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
