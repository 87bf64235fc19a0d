package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"viktorai/internal/models"
	"viktorai/internal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *service.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AccessTokenAuth(tokens), func(c *gin.Context) {
		id, _ := resolveUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})
	return r
}

func TestAccessTokenAuth(t *testing.T) {
	tokens := service.NewTokenService("access", "refresh", nil)
	r := newAuthRouter(tokens)

	token, err := tokens.IssueAccessToken(&models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
	}{
		{"valid token", &http.Cookie{Name: accessCookie, Value: token}, http.StatusOK},
		{"no cookie", nil, http.StatusUnauthorized},
		{"garbage token", &http.Cookie{Name: accessCookie, Value: "nope"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestServiceTokenAuth(t *testing.T) {
	r := gin.New()
	r.GET("/machine", ServiceTokenAuth("secret-token"), TestAuth)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer secret-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer other-token", http.StatusUnauthorized},
		{"no bearer prefix", "secret-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/machine", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestServiceTokenAuthRejectsWhenUnconfigured(t *testing.T) {
	r := gin.New()
	r.GET("/machine", ServiceTokenAuth(""), TestAuth)

	req := httptest.NewRequest(http.MethodGet, "/machine", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401 when no service token is configured", w.Code)
	}
}

func TestResolveUserIDPrefersPathParam(t *testing.T) {
	r := gin.New()
	r.GET("/users/:userId/thing", func(c *gin.Context) {
		id, ok := resolveUserID(c)
		if !ok || id != "u99" {
			t.Errorf("got (%q, %v), want (u99, true)", id, ok)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u99/thing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
}
