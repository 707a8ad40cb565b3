package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/david/signalscout/internal/auth"
	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/db"
	"github.com/david/signalscout/internal/scan"
	"github.com/david/signalscout/internal/scan/sources"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool

	// ConfigPath is where PUT /config persists changes. The embedded
	// default config is used when the file does not exist yet.
	ConfigPath string

	runner scan.Runner
}

func NewServer(pool *pgxpool.Pool, configPath string) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		DB:          pool,
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Echo:        e,
		ConfigPath:  configPath,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/leads", s.handleListLeads)
	api.GET("/leads/:id", s.handleGetLead)
	api.PATCH("/leads/:id", s.handleUpdateLead)
	api.GET("/leads/:id/similar", s.handleSimilarLeads)

	api.POST("/scan", s.handleTriggerScan)
	api.GET("/scan/status", s.handleScanStatus)
	api.GET("/scans", s.handleListScans)

	api.GET("/stats", s.handleStats)

	api.GET("/config", s.handleGetConfig)
	api.PUT("/config", s.handleUpdateConfig)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	saved := api.Group("/saved")
	saved.Use(auth.Middleware)
	saved.POST("/:id", s.handleSaveLead)
	saved.DELETE("/:id", s.handleUnsaveLead)
	saved.GET("", s.handleSavedLeads)
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// --- Leads ---

func (s *Server) handleListLeads(c echo.Context) error {
	filter := db.LeadFilter{
		Status:         c.QueryParam("status"),
		Source:         c.QueryParam("source"),
		IntentCategory: c.QueryParam("intent_category"),
		SortBy:         c.QueryParam("sort_by"),
		SortOrder:      c.QueryParam("sort_order"),
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_score"), 64); err == nil {
		filter.MinScore = &v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		filter.Offset = v
	}

	leads, err := s.Store.ListLeads(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}

func (s *Server) handleGetLead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
	}

	lead, err := s.Store.GetLead(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if lead == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Lead not found"})
	}
	return c.JSON(http.StatusOK, lead)
}

type leadUpdateRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (s *Server) handleUpdateLead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
	}

	var req leadUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Status == nil && req.Notes == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No updates provided"})
	}

	if err := s.Store.UpdateLead(c.Request().Context(), id, req.Status, req.Notes); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	lead, err := s.Store.GetLead(c.Request().Context(), id)
	if err != nil || lead == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Lead not found"})
	}
	return c.JSON(http.StatusOK, lead)
}

func (s *Server) handleSimilarLeads(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
	}
	limit := 5
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}

	leads, err := s.Store.SimilarLeads(c.Request().Context(), id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}

// --- Scans ---

func (s *Server) handleTriggerScan(c echo.Context) error {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	pipeline := scan.NewPipeline(s.Store, sources.All(), cfg)
	started := s.runner.TryStart(func() {
		// Detached from the request: a scan runs to completion even if
		// the triggering client goes away.
		if _, err := pipeline.Run(context.Background(), cfg); err != nil {
			log.Printf("[API] Scan failed: %v", err)
		}
	})

	if !started {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "already_running",
			"message": "A scan is already in progress",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "started",
		"message": "Scan started in background",
	})
}

func (s *Server) handleScanStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"running": s.runner.Running()})
}

func (s *Server) handleListScans(c echo.Context) error {
	scans, err := s.Store.ListScans(c.Request().Context(), 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"scans": scans})
}

// --- Stats ---

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

// --- Config ---

func (s *Server) handleGetConfig(c echo.Context) error {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, cfg.MaskAIKey())
}

type configUpdateRequest struct {
	ICP              *config.ICPConfig     `json:"icp"`
	NegativeKeywords *[]string             `json:"negative_keywords"`
	Scoring          *config.ScoringConfig `json:"scoring"`
	Output           *config.OutputConfig  `json:"output"`
	Sources          []config.SourceConfig `json:"sources"`
}

func (s *Server) handleUpdateConfig(c echo.Context) error {
	var req configUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if req.ICP != nil {
		cfg.ICP = *req.ICP
	}
	if req.NegativeKeywords != nil {
		cfg.NegativeKeywords = *req.NegativeKeywords
	}
	if req.Scoring != nil {
		// A masked or empty key means "keep the stored one".
		newKey := req.Scoring.AIAPIKey
		if newKey == "" || strings.Contains(newKey, "...") || newKey == "***" {
			req.Scoring.AIAPIKey = cfg.Scoring.AIAPIKey
		}
		cfg.Scoring = *req.Scoring
	}
	if req.Output != nil {
		cfg.Output = *req.Output
	}
	if req.Sources != nil {
		cfg.Sources = req.Sources
	}

	path := s.ConfigPath
	if path == "" {
		path = "config.yaml"
	}
	if err := config.Save(cfg, path); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// --- Auth ---

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// --- Saved leads ---

func (s *Server) handleSaveLead(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
	}

	if err := s.Store.SaveLead(c.Request().Context(), userID, leadID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleUnsaveLead(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
	}

	if err := s.Store.UnsaveLead(c.Request().Context(), userID, leadID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleSavedLeads(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	leads, err := s.Store.SavedLeads(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}
