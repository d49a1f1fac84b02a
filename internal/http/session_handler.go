package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fallakte/internal/repository"
	"fallakte/internal/service"
)

// SessionHandler fährt Merge-Runden gegen Termine.
type SessionHandler struct {
	logger      *zap.Logger
	clients     repository.ClientRepository
	sessions    repository.SessionRepository
	indicators  repository.IndicatorRepository
	extractSvc  *service.ExtractionService
	fragmentSvc *service.FragmentService
}

func NewSessionHandler(
	logger *zap.Logger,
	clients repository.ClientRepository,
	sessions repository.SessionRepository,
	indicators repository.IndicatorRepository,
	extractSvc *service.ExtractionService,
	fragmentSvc *service.FragmentService,
) *SessionHandler {
	return &SessionHandler{
		logger:      logger,
		clients:     clients,
		sessions:    sessions,
		indicators:  indicators,
		extractSvc:  extractSvc,
		fragmentSvc: fragmentSvc,
	}
}

// CreateSession bedient POST /clients/:id/sessions: Erstaufnahme eines
// Termins aus einem Narrativ-Fragment.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		SessionDate string `json:"session_date" binding:"required"`
		Narrative   string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_date und Narrativ sind erforderlich"})
		return
	}

	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_date muss das Format YYYY-MM-DD haben"})
		return
	}

	clientID := c.Param("id")
	if _, err := h.clients.GetByID(c.Request.Context(), clientID); err != nil {
		respondError(c, err)
		return
	}

	fields, indicatorScores, err := h.extractSvc.ExtractSession(c.Request.Context(), req.Narrative, nil)
	if err != nil {
		h.logger.Warn("session extraction failed", zap.String("client_id", clientID), zap.Error(err))
		respondError(c, err)
		return
	}

	session, created, err := service.MergeSession(nil, clientID, sessionDate, fields, indicatorScores, req.Narrative)
	if err != nil {
		respondError(c, err)
		return
	}

	// Termin und Indikatoren committen zusammen; ohne Indikatoren kein
	// halb geschriebener Stand.
	if err := h.sessions.Create(c.Request.Context(), session, created); err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), clientID, &session.ID, req.Narrative)

	c.JSON(http.StatusCreated, gin.H{"session": session, "indicators": created})
}

// UpdateSession bedient PUT /sessions/:id: eine Revisionsrunde mit
// weiterem Narrativ. Bestehende Felder bleiben erhalten, das Archiv
// wächst, Indikatoren kommen nur hinzu.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req struct {
		Narrative string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ ist erforderlich"})
		return
	}

	prev, err := h.sessions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	fields, indicatorScores, err := h.extractSvc.ExtractSession(c.Request.Context(), req.Narrative, &prev.Fields)
	if err != nil {
		h.logger.Warn("session extraction failed", zap.String("session_id", prev.ID), zap.Error(err))
		respondError(c, err)
		return
	}

	next, created, err := service.MergeSession(&prev, prev.ClientID, prev.SessionDate, fields, indicatorScores, req.Narrative)
	if err != nil {
		h.logger.Warn("session merge rejected", zap.String("session_id", prev.ID), zap.Error(err))
		respondError(c, err)
		return
	}

	if err := h.sessions.Update(c.Request.Context(), next, created); err != nil {
		h.logger.Error("update session failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), next.ClientID, &next.ID, req.Narrative)

	c.JSON(http.StatusOK, gin.H{"session": next, "indicators": created})
}

// GetSession bedient GET /sessions/:id samt Indikatoren.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	indicators, err := h.indicators.ListBySession(c.Request.Context(), session.ID)
	if err != nil {
		h.logger.Error("list indicators failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "indicators": indicators})
}

// ListSessions bedient GET /clients/:id/sessions, aufsteigend nach Datum.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	if _, err := h.clients.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	sessions, err := h.sessions.ListByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
