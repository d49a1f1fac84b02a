package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/email"
	"fallakte/internal/repository"
	"fallakte/internal/service"
)

// ReportHandler erzeugt und revidiert Berichte aus der Fallhistorie.
type ReportHandler struct {
	logger      *zap.Logger
	clients     repository.ClientRepository
	anamneses   repository.AnamnesisRepository
	sessions    repository.SessionRepository
	reports     repository.ReportRepository
	synthSvc    *service.SynthesisService
	fragmentSvc *service.FragmentService
	sender      email.Sender
}

func NewReportHandler(
	logger *zap.Logger,
	clients repository.ClientRepository,
	anamneses repository.AnamnesisRepository,
	sessions repository.SessionRepository,
	reports repository.ReportRepository,
	synthSvc *service.SynthesisService,
	fragmentSvc *service.FragmentService,
	sender email.Sender,
) *ReportHandler {
	return &ReportHandler{
		logger:      logger,
		clients:     clients,
		anamneses:   anamneses,
		sessions:    sessions,
		reports:     reports,
		synthSvc:    synthSvc,
		fragmentSvc: fragmentSvc,
		sender:      sender,
	}
}

// buildHistory lädt den Schnappschuss der Fallhistorie für die Synthese.
func (h *ReportHandler) buildHistory(c *gin.Context, clientID string) (domain.CaseHistory, error) {
	client, err := h.clients.GetByID(c.Request.Context(), clientID)
	if err != nil {
		return domain.CaseHistory{}, err
	}

	history := domain.CaseHistory{Client: client}

	anamnesis, err := h.anamneses.GetByClientID(c.Request.Context(), clientID)
	if err == nil {
		history.Anamnesis = &anamnesis
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.CaseHistory{}, err
	}

	history.Sessions, err = h.sessions.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		return domain.CaseHistory{}, err
	}

	history.Reports, err = h.reports.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		return domain.CaseHistory{}, err
	}

	return history, nil
}

// CreateReport bedient POST /clients/:id/reports.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req struct {
		Type      string `json:"type" binding:"required"`
		Title     string `json:"title" binding:"required"`
		Narrative string `json:"narrative" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type, title und Narrativ sind erforderlich"})
		return
	}

	reportType := domain.ReportType(req.Type)
	if !domain.ValidReportType(reportType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültiger Report-Typ"})
		return
	}

	clientID := c.Param("id")
	history, err := h.buildHistory(c, clientID)
	if err != nil {
		respondError(c, err)
		return
	}

	content, err := h.synthSvc.SynthesizeReport(c.Request.Context(), reportType, history, req.Narrative, "")
	if err != nil {
		h.logger.Warn("report synthesis failed", zap.String("client_id", clientID), zap.Error(err))
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	report := domain.Report{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		Type:          reportType,
		Title:         req.Title,
		Content:       content,
		RawTranscript: domain.AppendFragment("", req.Narrative),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		h.logger.Error("create report failed", zap.Error(err))
		respondError(c, err)
		return
	}

	h.fragmentSvc.RecordFragment(c.Request.Context(), clientID, nil, req.Narrative)

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// UpdateReport bedient PUT /reports/:id. Zwei Pfade: Re-Synthese mit
// neuem Narrativ (der bestehende Inhalt ist der Entwurf und muss erhalten
// bleiben) oder direkte Inhaltsersetzung (manueller Editierpfad, ohne
// Synthese). Schlägt die Synthese fehl und liegt manueller Inhalt vor,
// wird dieser committet statt die Eingabe zu verlieren.
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var req struct {
		Narrative string `json:"narrative"`
		Content   string `json:"content"`
		Title     string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültige Anfrage"})
		return
	}
	if strings.TrimSpace(req.Narrative) == "" && strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ oder Inhalt ist erforderlich"})
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var synthesisErr error
	switch {
	case strings.TrimSpace(req.Narrative) != "":
		history, err := h.buildHistory(c, report.ClientID)
		if err != nil {
			respondError(c, err)
			return
		}

		content, err := h.synthSvc.SynthesizeReport(c.Request.Context(), report.Type, history, req.Narrative, report.Content)
		if err == nil {
			report.Content = content
		} else if strings.TrimSpace(req.Content) != "" {
			// Fallback: der manuell mitgelieferte Inhalt wird committet,
			// der Fehler trotzdem gemeldet.
			h.logger.Warn("report synthesis failed, keeping manual content", zap.String("report_id", report.ID), zap.Error(err))
			report.Content = req.Content
			synthesisErr = err
		} else {
			h.logger.Warn("report synthesis failed", zap.String("report_id", report.ID), zap.Error(err))
			respondError(c, err)
			return
		}
		report.RawTranscript = domain.AppendFragment(report.RawTranscript, req.Narrative)
	default:
		// Manueller Editierpfad, keine Synthese.
		report.Content = req.Content
	}

	if strings.TrimSpace(req.Title) != "" {
		report.Title = req.Title
	}
	report.UpdatedAt = time.Now().UTC()

	if err := h.reports.Update(c.Request.Context(), report); err != nil {
		h.logger.Error("update report failed", zap.Error(err))
		respondError(c, err)
		return
	}

	if strings.TrimSpace(req.Narrative) != "" {
		h.fragmentSvc.RecordFragment(c.Request.Context(), report.ClientID, nil, req.Narrative)
	}

	resp := gin.H{"report": report}
	if synthesisErr != nil {
		resp["synthesis_error"] = "Bericht-Generierung fehlgeschlagen; manueller Inhalt wurde übernommen"
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport bedient GET /reports/:id.
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ListReports bedient GET /clients/:id/reports.
func (h *ReportHandler) ListReports(c *gin.Context) {
	if _, err := h.clients.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	reports, err := h.reports.ListByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("list reports failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// SendReport bedient POST /reports/:id/send.
func (h *ReportHandler) SendReport(c *gin.Context) {
	var req struct {
		To string `json:"to" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empfänger-Adresse ist erforderlich"})
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.sender.SendReport(c.Request.Context(), req.To, report.Title, report.Content); err != nil {
		h.logger.Warn("send report failed", zap.String("report_id", report.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Bericht konnte nicht versendet werden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true})
}
