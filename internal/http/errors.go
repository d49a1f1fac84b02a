package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"fallakte/internal/llm"
	"fallakte/internal/service"
)

// respondError bildet die Fehlertaxonomie auf HTTP ab. Jede Antwort
// beschreibt, was fehlschlug; die Entität bleibt im letzten committeten
// Stand, Teil-Schreiben gibt es nicht.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyNarrative):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Narrativ ist erforderlich"})
	case errors.Is(err, service.ErrMissingRequiredField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pflichtangabe fehlt: " + err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrJWTInvalid),
		errors.Is(err, service.ErrJWTExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Anmeldung fehlgeschlagen"})
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "Datensatz nicht gefunden"})
	case errors.Is(err, service.ErrMergeInvariantViolation):
		c.JSON(http.StatusConflict, gin.H{"error": "Zusammenführung abgelehnt: " + err.Error()})
	case errors.Is(err, llm.ErrTranscriptionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transkription fehlgeschlagen"})
	case errors.Is(err, service.ErrExtractionMalformed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Extraktion fehlgeschlagen: " + err.Error()})
	case errors.Is(err, service.ErrSynthesisFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Bericht-Generierung fehlgeschlagen"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Interner Fehler"})
	}
}
