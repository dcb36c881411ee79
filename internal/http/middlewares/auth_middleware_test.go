package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/auth"
	"github.com/ahburgess22/expense-tracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func gatedRouter(mgr *auth.Manager) *gin.Engine {
	r := gin.New()

	gate := middlewares.NewAuthMiddleware(mgr)

	r.GET("/secret", gate.RequireAuth(), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		email, _ := middlewares.EmailFromContext(c)

		c.JSON(http.StatusOK, gin.H{"user_id": id, "email": email})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	mgr := auth.NewManager("test-secret", time.Hour)

	valid, err := mgr.GenerateAccessToken("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	expiredMgr := auth.NewManager("test-secret", -time.Minute)
	expired, err := expiredMgr.GenerateAccessToken("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("generate expired token: %v", err)
	}

	otherSecret, err := auth.NewManager("other-secret", time.Hour).GenerateAccessToken("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("generate foreign token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "malformed token", header: "Bearer garbage", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + otherSecret, wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gatedRouter(mgr)

			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestIdentityStashedOnContext(t *testing.T) {
	mgr := auth.NewManager("test-secret", time.Hour)

	token, err := mgr.GenerateAccessToken("user-42", "owner@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r := gatedRouter(mgr)

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	body := w.Body.String()

	if !strings.Contains(body, "user-42") || !strings.Contains(body, "owner@example.com") {
		t.Fatalf("identity missing from context: %s", body)
	}
}
