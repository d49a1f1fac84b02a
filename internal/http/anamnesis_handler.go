package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/repository"
	"fallakte/internal/service"
)

// AnamnesisHandler fährt Merge-Runden gegen die Anamnese eines Klienten.
type AnamnesisHandler struct {
	logger      *zap.Logger
	clients     repository.ClientRepository
	anamneses   repository.AnamnesisRepository
	extractSvc  *service.ExtractionService
	fragmentSvc *service.FragmentService
}

func NewAnamnesisHandler(
	logger *zap.Logger,
	clients repository.ClientRepository,
	anamneses repository.AnamnesisRepository,
	extractSvc *service.ExtractionService,
	fragmentSvc *service.FragmentService,
) *AnamnesisHandler {
	return &AnamnesisHandler{
		logger:      logger,
		clients:     clients,
		anamneses:   anamneses,
		extractSvc:  extractSvc,
		fragmentSvc: fragmentSvc,
	}
}

// Upsert bedient PUT /clients/:id/anamnesis: eine Merge-Runde. Erstaufnahme
// und Revision laufen über denselben Pfad; bei Revision wird der Bestand an
// die Extraktion mitgegeben und die Invariante beim Merge geprüft.
func (h *AnamnesisHandler) Upsert(c *gin.Context) {
	var req struct {
		Narrative string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ ist erforderlich"})
		return
	}

	clientID := c.Param("id")
	if _, err := h.clients.GetByID(c.Request.Context(), clientID); err != nil {
		respondError(c, err)
		return
	}

	var prev *domain.Anamnesis
	existing, err := h.anamneses.GetByClientID(c.Request.Context(), clientID)
	switch {
	case err == nil:
		prev = &existing
	case errors.Is(err, pgx.ErrNoRows):
		// Erstaufnahme.
	default:
		respondError(c, err)
		return
	}

	var existingFields *domain.AnamnesisFields
	if prev != nil {
		existingFields = &prev.Fields
	}

	extracted, err := h.extractSvc.ExtractAnamnesis(c.Request.Context(), req.Narrative, existingFields)
	if err != nil {
		h.logger.Warn("anamnesis extraction failed", zap.String("client_id", clientID), zap.Error(err))
		respondError(c, err)
		return
	}

	next, err := service.MergeAnamnesis(prev, clientID, extracted, req.Narrative)
	if err != nil {
		h.logger.Warn("anamnesis merge rejected", zap.String("client_id", clientID), zap.Error(err))
		respondError(c, err)
		return
	}

	if err := h.anamneses.Upsert(c.Request.Context(), next); err != nil {
		h.logger.Error("anamnesis upsert failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), clientID, nil, req.Narrative)

	c.JSON(http.StatusOK, gin.H{"anamnesis": next})
}

// Get bedient GET /clients/:id/anamnesis.
func (h *AnamnesisHandler) Get(c *gin.Context) {
	anamnesis, err := h.anamneses.GetByClientID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"anamnesis": anamnesis})
}

// Delete bedient DELETE /clients/:id/anamnesis; die Akte selbst bleibt.
func (h *AnamnesisHandler) Delete(c *gin.Context) {
	if _, err := h.anamneses.GetByClientID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	if err := h.anamneses.DeleteByClientID(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("anamnesis delete failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
