package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todo-api/internal/domain"
	"todo-api/internal/repository"
	"todo-api/internal/service"
)

type testServer struct {
	router *gin.Engine
	users  *repository.MemoryUserRepository
	jwt    *service.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := repository.NewMemoryUserRepository()
	todos := repository.NewMemoryTodoRepository()
	jwtSvc := service.NewJWTService("test-secret", 0)
	userSvc := service.NewUserService(logger, users, jwtSvc, service.NewPasswordHasher(bcrypt.MinCost), nil, 6)
	todoSvc := service.NewTodoService(logger, todos)

	router := NewRouter(
		logger,
		AuthMiddleware(logger, userSvc),
		NewUserHandler(logger, userSvc),
		NewTodoHandler(logger, todoSvc),
		NewHealthHandler(logger, map[string]Pinger{"store": users}),
	)
	return &testServer{router: router, users: users, jwt: jwtSvc}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := s.do(http.MethodPost, "/users", "", `{"email":"`+email+`","password":"abcdef"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode register body: %v", err)
	}
	return body["_id"].(string), strings.TrimPrefix(rec.Header().Get("Authorization"), "Bearer ")
}

func TestRegister_ResponseContract(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/users", "", `{"email":"a@b.com","password":"abcdef"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 || body["email"] != "a@b.com" || body["_id"] == "" {
		t.Fatalf("expected exactly _id and email, got %v", body)
	}

	header := rec.Header().Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", header)
	}
	claims, err := s.jwt.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		t.Fatalf("verify header token: %v", err)
	}
	if claims.UserID != body["_id"] || claims.Purpose != domain.PurposeAuth {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegister_InvalidPayloads(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"empty object":   `{}`,
		"unknown field":  `{"email":"a@b.com","password":"abcdef","admin":true}`,
		"wrong type":     `{"email":"a@b.com","password":123456}`,
		"not an object":  `["a@b.com"]`,
		"invalid json":   `{"email":`,
		"invalid email":  `{"email":"nope","password":"abcdef"}`,
		"short password": `{"email":"a@b.com","password":"abc"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/users", "", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if rec.Header().Get("Authorization") != "" {
				t.Fatalf("expected no authorization header")
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@b.com")

	rec := s.do(http.MethodPost, "/users", "", `{"email":"a@b.com","password":"abcdef"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.register(t, "a@b.com")

	rec := s.do(http.MethodPost, "/users/login", "", `{"email":"a@b.com","password":"abcdef"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Authorization") == "" {
		t.Fatalf("expected authorization header")
	}
	stored, err := s.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(stored.Tokens) != 2 {
		t.Fatalf("expected two tokens, got %d", len(stored.Tokens))
	}
}

func TestLogin_RepeatedSuccessStaysOK(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@b.com")

	for i := 1; i <= 15; i++ {
		rec := s.do(http.MethodPost, "/users/login", "", `{"email":"a@b.com","password":"abcdef"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("login #%d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
}

func TestLogin_WrongPasswordLeavesTokensUnchanged(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.register(t, "a@b.com")

	wrong := s.do(http.MethodPost, "/users/login", "", `{"email":"a@b.com","password":"zzzzzz"}`)
	unknown := s.do(http.MethodPost, "/users/login", "", `{"email":"x@b.com","password":"abcdef"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if rec.Header().Get("Authorization") != "" {
			t.Fatalf("expected no authorization header")
		}
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("expected identical bodies, got %q and %q", wrong.Body.String(), unknown.Body.String())
	}

	stored, err := s.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(stored.Tokens) != 1 {
		t.Fatalf("expected token list unchanged, got %d", len(stored.Tokens))
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "a@b.com")

	rec := s.do(http.MethodGet, "/users/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Authorization") != "Bearer "+token {
		t.Fatalf("expected token echoed, got %q", rec.Header().Get("Authorization"))
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["_id"] != id || len(body) != 2 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMe_AuthFailures(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.register(t, "a@b.com")
	foreign, err := s.jwt.Sign(id, domain.PurposeAuth)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	forged, err := service.NewJWTService("other", 0).Sign(id, domain.PurposeAuth)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"missing header":   "",
		"malformed header": "Token abc.def.ghi",
		"two segments":     "Bearer abc.def",
		"bad signature":    "Bearer " + forged,
		"not in list":      "Bearer " + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "password") {
				t.Fatalf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}

func TestLogout_DoubleRemovalFails(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "a@b.com")

	rec := s.do(http.MethodDelete, "/users/me/token", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/users/me", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected revoked token to fail, got %d", rec.Code)
	}
	rec = s.do(http.MethodDelete, "/users/me/token", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected second logout to fail, got %d", rec.Code)
	}
}

func TestTodos_OwnershipScoping(t *testing.T) {
	s := newTestServer(t)
	_, tokenA := s.register(t, "a@b.com")
	_, tokenB := s.register(t, "b@b.com")

	recA := s.do(http.MethodPost, "/todos", tokenA, `{"text":"a task"}`)
	if recA.Code != http.StatusOK {
		t.Fatalf("create A: expected 200, got %d: %s", recA.Code, recA.Body.String())
	}
	var todoA domain.Todo
	if err := json.Unmarshal(recA.Body.Bytes(), &todoA); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec := s.do(http.MethodPost, "/todos", tokenB, `{"text":"b task"}`); rec.Code != http.StatusOK {
		t.Fatalf("create B: expected 200, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/todos", tokenA, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Todos []domain.Todo `json:"todos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Todos) != 1 || list.Todos[0].ID != todoA.ID || list.Todos[0].Text != "a task" {
		t.Fatalf("expected only A's todo, got %+v", list.Todos)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := s.do(method, "/todos/"+todoA.ID, tokenB, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s foreign todo: expected 404, got %d", method, rec.Code)
		}
	}
	if rec := s.do(http.MethodPatch, "/todos/"+todoA.ID, tokenB, `{"text":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("patch foreign todo: expected 404, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/todos/not-an-id", tokenA, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", rec.Code)
	}
}

func TestTodos_PatchCompletedAt(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "a@b.com")

	rec := s.do(http.MethodPost, "/todos", token, `{"text":"task"}`)
	var created domain.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = s.do(http.MethodPatch, "/todos/"+created.ID, token, `{"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var done struct {
		Todo domain.Todo `json:"todo"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !done.Todo.Completed || done.Todo.CompletedAt == nil || *done.Todo.CompletedAt <= 0 {
		t.Fatalf("expected completedAt timestamp, got %+v", done.Todo)
	}

	rec = s.do(http.MethodPatch, "/todos/"+created.ID, token, `{"completed":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"completedAt":null`) {
		t.Fatalf("expected completedAt null, got %s", rec.Body.String())
	}
}

func TestTodos_InvalidFields(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "a@b.com")

	for _, body := range []string{`{}`, `{"text":"a","bogus":1}`, `{"text":1}`, `{"completedAt":5}`, `{"text":"  "}`} {
		if rec := s.do(http.MethodPost, "/todos", token, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
	if rec := s.do(http.MethodPost, "/todos", "", `{"text":"a"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unauthenticated create: expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}

	h := NewHealthHandler(zap.NewNop(), map[string]Pinger{
		"store": PingFunc(func(context.Context) error { return errors.New("down") }),
	})
	r := gin.New()
	r.GET("/readyz", h.Ready)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
