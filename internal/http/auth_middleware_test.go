package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/service"
)

type stubResolver struct {
	user domain.User
	err  error
	hits int
}

func (s *stubResolver) FindByToken(_ context.Context, _ string) (domain.User, error) {
	s.hits++
	return s.user, s.err
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("expected abc.def.ghi, got %q (%v)", token, err)
	}
	if _, err := ExtractBearerToken("abc.def.ghi"); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected malformed header, got %v", err)
	}
	if _, err := ExtractBearerToken("Bearer abc.d$f.ghi"); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected malformed header, got %v", err)
	}
	if _, err := ExtractBearerToken(""); !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected missing header, got %v", err)
	}
}

func runMiddleware(t *testing.T, resolver TokenResolver, header string) AuthOutcome {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var got AuthOutcome
	r := gin.New()
	r.GET("/", AuthMiddleware(zap.NewNop(), resolver), func(c *gin.Context) {
		got = GetAuthOutcome(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
	return got
}

func TestAuthMiddleware_Outcomes(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		resolver := &stubResolver{}
		got := runMiddleware(t, resolver, "")
		if !errors.Is(got.Err, ErrMissingHeader) || resolver.hits != 0 {
			t.Fatalf("unexpected outcome: %+v hits=%d", got, resolver.hits)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		resolver := &stubResolver{}
		got := runMiddleware(t, resolver, "Basic abc")
		if !errors.Is(got.Err, ErrMalformedHeader) || resolver.hits != 0 {
			t.Fatalf("unexpected outcome: %+v hits=%d", got, resolver.hits)
		}
	})

	t.Run("codec failure propagates", func(t *testing.T) {
		resolver := &stubResolver{err: service.ErrTokenSignature}
		got := runMiddleware(t, resolver, "Bearer a.b.c")
		if !errors.Is(got.Err, service.ErrTokenSignature) || errors.Is(got.Err, service.ErrUserNotFound) {
			t.Fatalf("unexpected outcome: %+v", got)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		resolver := &stubResolver{err: service.ErrUserNotFound}
		got := runMiddleware(t, resolver, "Bearer a.b.c")
		if !errors.Is(got.Err, service.ErrUserNotFound) {
			t.Fatalf("unexpected outcome: %+v", got)
		}
	})

	t.Run("resolved", func(t *testing.T) {
		resolver := &stubResolver{user: domain.User{ID: "u1", Email: "a@b.com"}}
		got := runMiddleware(t, resolver, "Bearer a.b.c")
		if !got.OK() || got.User.ID != "u1" || got.Token != "a.b.c" {
			t.Fatalf("unexpected outcome: %+v", got)
		}
	})
}
