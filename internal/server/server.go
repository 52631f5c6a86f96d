// Package server exposes the audit engine over HTTP with token auth.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/site-audit/auditor/internal/audit"
	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/narrator"
	"github.com/site-audit/auditor/internal/urlutil"
)

// auditRequest is the body of both audit endpoints.
type auditRequest struct {
	URL string `json:"url"`
}

// Server wires the HTTP routes to the audit service.
type Server struct {
	engine  *gin.Engine
	service *audit.Service
	token   string
	addr    string
	log     *logrus.Entry
}

// New builds the router. The health endpoint is open; everything else
// requires the X-API-Token header.
func New(cfg config.App, service *audit.Service) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:  gin.New(),
		service: service,
		token:   cfg.APIToken,
		addr:    cfg.Addr,
		log:     logrus.WithField("component", "server"),
	}

	s.engine.Use(gin.Recovery())
	s.engine.GET("/health", s.handleHealth)

	authed := s.engine.Group("/", s.requireToken)
	authed.POST("/report", s.handleReport)
	authed.POST("/analyze_summary", s.handleSummary)

	return s
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.WithField("addr", s.addr).Info("listening")
	return s.engine.Run(s.addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requireToken rejects requests whose X-API-Token does not match. A server
// without a configured token refuses to authenticate anything.
func (s *Server) requireToken(c *gin.Context) {
	if s.token == "" {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"detail": "API token is not configured",
		})
		return
	}
	if c.GetHeader("X-API-Token") != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"detail": "invalid or missing API token",
		})
		return
	}
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReport(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	relatorio, err := s.service.RunFullReport(c.Request.Context(), req.URL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, relatorio)
}

func (s *Server) handleSummary(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	summary, err := s.service.RunSummary(c.Request.Context(), req.URL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) respondError(c *gin.Context, err error) {
	var invalid *urlutil.InvalidURLError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"detail": invalid.Reason})
	case errors.Is(err, narrator.ErrLLMUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
