package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikey/anomaly-classifier/internal/batch"
	"github.com/mikey/anomaly-classifier/internal/core"
	"go.uber.org/zap"
)

// Client-facing error messages
const (
	msgNoData   = "No data provided."
	msgInternal = "An internal error occurred. Please check the server logs."
)

// ErrorResponse is the body of every non-200 response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ScalerLoaded bool   `json:"scaler_loaded"`
}

// predict handles POST /predict
func (s *Server) predict(c *gin.Context) {
	body := c.Request.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, s.cfg.MaxBodyBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		s.internalError(c, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	records, err := batch.Decode(data)
	if errors.Is(err, core.ErrNoData) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNoData})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	results, err := s.classifier.ClassifyBatch(c.Request.Context(), records)
	if err != nil {
		s.internalError(c, fmt.Errorf("failed to classify batch: %w", err))
		return
	}

	c.JSON(http.StatusOK, results)
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	if s.artifacts != nil {
		resp.ModelLoaded = s.artifacts.Model.Loaded
		resp.ScalerLoaded = s.artifacts.Scaler.Loaded
	}
	c.JSON(http.StatusOK, resp)
}

// internalError logs err and answers with the generic 500 body
func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("An error occurred during prediction",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
}
