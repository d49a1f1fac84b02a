package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fallakte/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware validiert Access-Tokens und legt Claims in den Kontext.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims liest die JWT-Claims aus dem Gin-Kontext.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// LLMRateLimitMiddleware deckelt LLM-gebundene Routen pro Fachkraft.
func LLMRateLimitMiddleware(limiter service.LLMRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		claims, ok := GetAuthClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}
		if !limiter.Allow(claims.WorkerID) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Zu viele Anfragen, bitte später erneut versuchen"})
			c.Abort()
			return
		}
		c.Next()
	}
}
