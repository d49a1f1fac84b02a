package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fallakte/internal/repository"
	"fallakte/internal/service"
)

// ClientHandler bedient Klientenakten: Intake aus Narrativ, Revision,
// Löschung und die Fragmentsuche über die Fallhistorie.
type ClientHandler struct {
	logger      *zap.Logger
	clients     repository.ClientRepository
	anamneses   repository.AnamnesisRepository
	extractSvc  *service.ExtractionService
	fragmentSvc *service.FragmentService
}

func NewClientHandler(
	logger *zap.Logger,
	clients repository.ClientRepository,
	anamneses repository.AnamnesisRepository,
	extractSvc *service.ExtractionService,
	fragmentSvc *service.FragmentService,
) *ClientHandler {
	return &ClientHandler{
		logger:      logger,
		clients:     clients,
		anamneses:   anamneses,
		extractSvc:  extractSvc,
		fragmentSvc: fragmentSvc,
	}
}

// CreateClient bedient POST /clients: Intake-Narrativ -> Profil-Extraktion
// -> neue Akte.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req struct {
		Narrative string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ ist erforderlich"})
		return
	}

	extracted, err := h.extractSvc.ExtractProfile(c.Request.Context(), req.Narrative)
	if err != nil {
		h.logger.Warn("profile extraction failed", zap.Error(err))
		respondError(c, err)
		return
	}

	client := service.MergeProfile(nil, extracted)
	if err := h.clients.Create(c.Request.Context(), client); err != nil {
		h.logger.Error("create client failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), client.ID, nil, req.Narrative)

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// UpdateClient bedient PUT /clients/:id: weiteres Narrativ wird in die
// Attributmenge gemergt, Bestand bleibt erhalten.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req struct {
		Narrative string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ ist erforderlich"})
		return
	}

	prev, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	extracted, err := h.extractSvc.ExtractProfile(c.Request.Context(), req.Narrative)
	if err != nil && !errors.Is(err, service.ErrMissingRequiredField) {
		// Bei einer Revision ist der Name schon bekannt; fehlt er im neuen
		// Narrativ, bleibt der Bestand maßgeblich.
		h.logger.Warn("profile extraction failed", zap.Error(err))
		respondError(c, err)
		return
	}

	client := service.MergeProfile(&prev, extracted)
	if err := h.clients.Update(c.Request.Context(), client); err != nil {
		h.logger.Error("update client failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), client.ID, nil, req.Narrative)

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// GetClient bedient GET /clients/:id inklusive eingebetteter Anamnese.
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	anamnesis, err := h.anamneses.GetByClientID(c.Request.Context(), client.ID)
	if err == nil {
		client.Anamnesis = &anamnesis
	} else if !errors.Is(err, pgx.ErrNoRows) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// ListClients bedient GET /clients.
func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list clients failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// DeleteClient bedient DELETE /clients/:id.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	if _, err := h.clients.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	if err := h.clients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete client failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchFragments bedient GET /clients/:id/fragments/search?q=&k=.
func (h *ClientHandler) SearchFragments(c *gin.Context) {
	query := c.Query("q")
	k, _ := strconv.Atoi(c.DefaultQuery("k", "5"))

	if _, err := h.clients.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	fragments, err := h.fragmentSvc.Search(c.Request.Context(), c.Param("id"), query, k)
	if err != nil {
		h.logger.Warn("fragment search failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fragments": fragments})
}
