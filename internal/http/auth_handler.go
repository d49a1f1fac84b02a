package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fallakte/internal/service"
)

// AuthHandler bedient den Identitätsrand: Login und Token-Refresh.
type AuthHandler struct {
	logger  *zap.Logger
	authSvc *service.AuthService
	jwtSvc  *service.JWTService
}

func NewAuthHandler(logger *zap.Logger, authSvc *service.AuthService, jwtSvc *service.JWTService) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		authSvc: authSvc,
		jwtSvc:  jwtSvc,
	}
}

// Login bedient POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-Mail und Passwort sind erforderlich"})
		return
	}

	worker, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.jwtSvc.GeneratePair(worker)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair, "worker": worker})
}

// Refresh bedient POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token ist erforderlich"})
		return
	}

	pair, err := h.jwtSvc.RefreshPair(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}
