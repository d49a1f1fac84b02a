package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fallakte/internal/llm"
)

// TranscribeHandler reicht Audio an die externe Transkription durch.
type TranscribeHandler struct {
	logger          *zap.Logger
	transcriber     llm.Transcriber
	defaultLanguage string
}

func NewTranscribeHandler(logger *zap.Logger, transcriber llm.Transcriber, defaultLanguage string) *TranscribeHandler {
	return &TranscribeHandler{
		logger:          logger,
		transcriber:     transcriber,
		defaultLanguage: defaultLanguage,
	}
}

// Transcribe bedient POST /transcribe (multipart, Feld "audio").
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio-Datei ist erforderlich"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Warn("open audio upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio-Datei konnte nicht gelesen werden"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("read audio upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio-Datei konnte nicht gelesen werden"})
		return
	}

	language := c.PostForm("language")
	if language == "" {
		language = h.defaultLanguage
	}

	transcript, err := h.transcriber.Transcribe(c.Request.Context(), audio, fileHeader.Filename, language)
	if err != nil {
		h.logger.Warn("transcription failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}
