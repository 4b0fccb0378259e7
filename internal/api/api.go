package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/parser"
	"github.com/ivlev/text2video/internal/planner"
)

// Server is a thin HTTP adapter: every handler translates one request into
// the pipeline calls Validate/Plan/RenderSlides/AssembleVideo and back.
type Server struct {
	cfg     *config.Config
	project *engine.Project
}

func NewServer(cfg *config.Config, project *engine.Project) *Server {
	return &Server{cfg: cfg, project: project}
}

// Routes registers all endpoints on the engine.
func (s *Server) Routes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/validate-input", s.validateInput)
		v1.POST("/validate-input-file", s.validateInputFile)
		v1.POST("/create-plan", s.createPlan)
		v1.GET("/themes", s.listThemes)
		v1.POST("/render-slides", s.renderSlides)
		v1.POST("/generate-video", s.generateVideo)
		v1.GET("/download-slide/:filename", s.downloadSlide)
		v1.GET("/download-video/:filename", s.downloadVideo)
	}
}

type contentRequest struct {
	Content   string `json:"content" binding:"required"`
	ThemeName string `json:"theme_name"`
}

type generateVideoRequest struct {
	Content   string `json:"content" binding:"required"`
	ThemeName string `json:"theme_name"`
	Filename  string `json:"filename"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) validateInput(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.validate(c, req.Content)
}

func (s *Server) validateInputFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	if !strings.HasSuffix(fileHeader.Filename, ".txt") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .txt files are supported"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read upload"})
		return
	}
	if !utf8.Valid(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be valid UTF-8 text"})
		return
	}

	s.validate(c, string(data))
}

func (s *Server) validate(c *gin.Context, content string) {
	input, err := s.project.Validate(content)
	if err != nil {
		s.fail(c, err)
		return
	}

	slides := make([]gin.H, 0, len(input.Slides))
	for _, slide := range input.Slides {
		slides = append(slides, gin.H{
			"title":         slide.Title,
			"content":       slide.Content,
			"content_count": len(slide.Content),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "success",
		"slide_count":         len(input.Slides),
		"total_content_lines": input.TotalContentLines(),
		"slides":              slides,
	})
}

func (s *Server) createPlan(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := s.project.Validate(req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}

	plan := s.project.Plan(input, req.ThemeName)
	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"theme":          plan.Theme,
		"slides":         plan.Slides,
		"total_duration": plan.TotalDuration,
		"slide_count":    plan.SlideCount(),
	})
}

func (s *Server) listThemes(c *gin.Context) {
	themes := planner.Themes()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"themes": themes,
		"count":  len(themes),
	})
}

func (s *Server) renderSlides(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := s.project.Validate(req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}

	plan := s.project.Plan(input, req.ThemeName)
	paths, err := s.project.RenderSlides(plan)
	if err != nil {
		s.fail(c, err)
		return
	}

	filenames := make([]string, 0, len(paths))
	for _, p := range paths {
		filenames = append(filenames, filepath.Base(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"slide_count":     len(filenames),
		"slide_filenames": filenames,
		"theme_used":      plan.Theme.Name,
		"total_duration":  plan.TotalDuration,
	})
}

func (s *Server) generateVideo(c *gin.Context) {
	var req generateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := s.project.Run(c.Request.Context(), req.Content, req.ThemeName, req.Filename)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"video":    artifact,
		"download": "/api/v1/download-video/" + filepath.Base(artifact.Path),
	})
}

func (s *Server) downloadSlide(c *gin.Context) {
	s.serveFile(c, s.cfg.SlidesDir(), "image/png")
}

func (s *Server) downloadVideo(c *gin.Context) {
	s.serveFile(c, s.cfg.VideosDir(), "video/mp4")
}

func (s *Server) serveFile(c *gin.Context, dir, contentType string) {
	filename := c.Param("filename")

	// Path traversal guard.
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}

	path := filepath.Join(dir, filename)
	c.Header("Content-Type", contentType)
	c.FileAttachment(path, filename)
}

// fail maps pipeline errors to HTTP statuses: malformed input is the
// caller's fault, everything else is ours.
func (s *Server) fail(c *gin.Context, err error) {
	var formatErr *parser.FormatError
	if errors.As(err, &formatErr) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
}
