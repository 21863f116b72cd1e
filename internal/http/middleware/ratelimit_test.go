package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promptmatch/internal/domain"
	"promptmatch/internal/service"

	"github.com/gin-gonic/gin"
)

func TestSimpleRateLimitBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RedisRateLimit(nil, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i, want := range []int{200, 200, 429} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, w.Code, want)
		}
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := newMemoryLimiter()
	if _, ok := l.allow("a", 1, 10*time.Millisecond); !ok {
		t.Fatal("first hit blocked")
	}
	if _, ok := l.allow("a", 1, 10*time.Millisecond); ok {
		t.Fatal("second hit allowed")
	}
	if _, ok := l.allow("b", 1, 10*time.Millisecond); !ok {
		t.Fatal("other key blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := l.allow("a", 1, 10*time.Millisecond); !ok {
		t.Fatal("hit after window blocked")
	}
}

func TestPlayerRateLimitIsPerPlayer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenIssuer("secret", time.Hour)
	r := gin.New()
	r.POST("/games/:id/tiles/:tile", Session(tokens), PlayerRateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	a, _ := tokens.Issue(domain.Session{MatchID: "m1", PlayerID: "a"})
	b, _ := tokens.Issue(domain.Session{MatchID: "m1", PlayerID: "b"})

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/games/m1/tiles/0", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := do(a); code != 200 {
		t.Fatalf("a first: %d", code)
	}
	if code := do(a); code != 429 {
		t.Fatalf("a second: %d", code)
	}
	if code := do(b); code != 200 {
		t.Fatalf("b first: %d", code)
	}
}
