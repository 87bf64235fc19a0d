package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"viktorai/internal/service"
	"viktorai/utils"

	"github.com/gin-gonic/gin"
)

const (
	accessCookie  = "as"
	refreshCookie = "ref"
	userIDKey     = "userID"
)

// AccessTokenAuth gates end-user routes on a valid access token cookie.
// There is no silent refresh here: an expired token gets a 401 and the
// client must hit the refresh endpoint.
func AccessTokenAuth(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessCookie)
		if err != nil || token == "" {
			utils.UnauthorizedResponse(c, "No valid token provided")
			c.Abort()
			return
		}
		userID, err := tokens.VerifyAccessToken(token)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ServiceTokenAuth gates machine-to-machine routes on a static bearer token.
// Routes behind it take the target user id from the URL instead of a session.
func ServiceTokenAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			utils.UnauthorizedResponse(c, "Service token authentication is not configured")
			c.Abort()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.UnauthorizedResponse(c, "No authorization header provided")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			utils.UnauthorizedResponse(c, "Invalid API token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// resolveUserID returns the identity a quiz operation acts for: the userId
// path parameter on machine routes, otherwise the authenticated session
// identity set by AccessTokenAuth. End-user routes never carry the
// parameter, so a client cannot substitute someone else's id.
func resolveUserID(c *gin.Context) (string, bool) {
	if id := c.Param("userId"); id != "" {
		return id, true
	}
	if id := c.GetString(userIDKey); id != "" {
		return id, true
	}
	return "", false
}

// TestAuth is a smoke endpoint for external systems validating their
// service token.
func TestAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Authentication successful"})
}
