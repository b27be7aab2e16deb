package http

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/config"
)

const resumeContentType = "application/pdf"

// ResumeHandler serves the resume file as a download.
type ResumeHandler struct {
	path     string
	filename string
	log      *zerolog.Logger
}

// NewResumeHandler creates a resume handler from configuration.
func NewResumeHandler(cfg config.ResumeConfig, logger *zerolog.Logger) *ResumeHandler {
	filename := cfg.Filename
	if filename == "" {
		filename = filepath.Base(cfg.Path)
	}
	return &ResumeHandler{
		path:     cfg.Path,
		filename: filename,
		log:      logger,
	}
}

// Download sends the resume as an attachment.
// GET /api/download-resume
func (h *ResumeHandler) Download(c *gin.Context) {
	info, err := os.Stat(h.path)
	if err != nil || info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			h.log.Error().Err(err).Str("path", h.path).Msg("failed to stat resume")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Resume file not found"})
		return
	}

	// ServeFile keeps a preset Content-Type instead of sniffing the extension.
	c.Header("Content-Type", resumeContentType)
	c.FileAttachment(h.path, h.filename)
}
