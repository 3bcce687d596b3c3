package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

func newEngine(mw Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw.Trace())
	r.GET("/trace", func(c *gin.Context) {
		c.String(http.StatusOK, log.TraceID(c.Request.Context()))
	})
	r.GET("/admin", mw.Admin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestTrace_KeepsCallerID(t *testing.T) {
	r := newEngine(New(log.NewNop(), ""))

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-1" || w.Header().Get(HeaderRequestID) != "req-1" {
		t.Errorf("body=%q header=%q", w.Body.String(), w.Header().Get(HeaderRequestID))
	}
}

func TestTrace_GeneratesID(t *testing.T) {
	r := newEngine(New(log.NewNop(), ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trace", nil))

	if w.Body.String() == "" || w.Body.String() != w.Header().Get(HeaderRequestID) {
		t.Errorf("body=%q header=%q", w.Body.String(), w.Header().Get(HeaderRequestID))
	}
}

func TestAdmin(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"open when unset", "", "", http.StatusNoContent},
		{"matching key", "s3cret", "s3cret", http.StatusNoContent},
		{"missing key", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(New(log.NewNop(), tt.key))
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(HeaderAdminKey, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
