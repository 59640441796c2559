// README: Tests for Firebase auth middleware and the self-only guard.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nearmatch/internal/http/middleware"
	"nearmatch/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery(zap.NewNop()), middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c)})
	})
	r.GET("/users/:id", middleware.SelfOnly(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func serve(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "user1"}})
	if w := serve(r, "/test", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "user1"}})
	if w := serve(r, "/test", "Token sometoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	if w := serve(r, "/test", "Bearer invalidtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_UIDPopulated(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "alice123"}})
	w := serve(r, "/test", "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice123") {
		t.Errorf("expected uid alice123 in body, got %s", w.Body.String())
	}
}

func TestSelfOnly(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "alice123"}})
	if w := serve(r, "/users/alice123", "Bearer validtoken"); w.Code != http.StatusOK {
		t.Errorf("own id: expected 200, got %d", w.Code)
	}
	if w := serve(r, "/users/bob456", "Bearer validtoken"); w.Code != http.StatusForbidden {
		t.Errorf("other id: expected 403, got %d", w.Code)
	}
}

func TestAuth_NilVerifierPassesThrough(t *testing.T) {
	r := newTestRouter(nil)
	if w := serve(r, "/users/anyone", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(nil)
	if w := serve(r, "/panic", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
