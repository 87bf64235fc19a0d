package handlers

import (
	"errors"
	"net/http"
	"time"

	"viktorai/internal/service"
	"viktorai/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	loginDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_login_duration_seconds",
			Help:    "Time spent processing login requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	logoutAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_logout_attempts_total",
			Help: "Total number of logout attempts",
		},
	)

	refreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_attempts_total",
			Help: "Total number of token refresh attempts",
		},
		[]string{"status"},
	)
)

const refreshMaxAge = int(7 * 24 * time.Hour / time.Second)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *service.TokenService
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens}
}

// setSessionCookies installs the access/refresh pair. The refresh cookie is
// scoped to the refresh path only so it never rides along on normal requests.
func setSessionCookies(c *gin.Context, pair *service.TokenPair) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(refreshCookie, pair.RefreshToken, refreshMaxAge, "/refresh", "", true, true)
	c.SetCookie(accessCookie, pair.AccessToken, refreshMaxAge, "/", "", true, true)
}

func clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(refreshCookie, "", -1, "/refresh", "", true, true)
	c.SetCookie(accessCookie, "", -1, "/", "", true, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		registrationAttempts.WithLabelValues("failure").Inc()
		utils.BadRequestResponse(c, "Username, email, and password are required")
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, service.ErrDuplicateIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already taken."})
			return
		}
		utils.InternalErrorResponse(c, "Registration failed")
		return
	}

	registrationAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration successful!"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		loginDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		if errors.Is(err, service.ErrUserLocked) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts, try again later."})
			return
		}
		// Never reveal whether the username or the password was wrong.
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid login information."})
		return
	}

	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		utils.InternalErrorResponse(c, "Login failed")
		return
	}
	setSessionCookies(c, pair)

	loginAttempts.WithLabelValues("success").Inc()
	loginDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful!",
		"user": gin.H{
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Refresh rotates the access/refresh pair. A refresh token carrying a stale
// revocation counter is rejected; the caller has been signed out elsewhere.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		refreshAttempts.WithLabelValues("failure").Inc()
		utils.UnauthorizedResponse(c, "No token provided")
		return
	}

	pair, _, err := h.tokens.Rotate(c.Request.Context(), token)
	if err != nil {
		refreshAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, service.ErrRevoked) {
			utils.UnauthorizedResponse(c, "Signed out")
			return
		}
		utils.UnauthorizedResponse(c, "Token expired or invalid")
		return
	}

	setSessionCookies(c, pair)
	refreshAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "successful"})
}

// Logout bumps the revocation counter, invalidating every outstanding
// refresh token for the account, then clears both cookies. Cookies are
// cleared even when the token is missing or stale.
func (h *AuthHandler) Logout(c *gin.Context) {
	logoutAttempts.Inc()

	token, err := c.Cookie(refreshCookie)
	if err == nil && token != "" {
		if err := h.tokens.RevokeFromToken(c.Request.Context(), token); err != nil {
			clearSessionCookies(c)
			c.JSON(http.StatusOK, gin.H{"message": "There was a problem so you have been logged out only from this device"})
			return
		}
	}

	clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "User logged out successfully"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		utils.UnauthorizedResponse(c, "Missing refresh token")
		return
	}

	userID, err := h.tokens.UserIDFromRefreshToken(token)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid refresh token")
		return
	}

	if err := h.auth.DeleteAccount(c.Request.Context(), userID); err != nil {
		utils.InternalErrorResponse(c, "Error deleting account")
		return
	}

	clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// GetUser returns the profile behind the current access token.
func (h *AuthHandler) GetUser(c *gin.Context) {
	token, err := c.Cookie(accessCookie)
	if err != nil || token == "" {
		utils.BadRequestResponse(c, "Missing access token")
		return
	}
	userID, err := h.tokens.VerifyAccessToken(token)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid access token")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.NotFoundResponse(c, "User not found")
			return
		}
		utils.InternalErrorResponse(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
