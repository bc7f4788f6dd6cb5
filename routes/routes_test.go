package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"devevents/middlewares"
	"devevents/mocks"
	"devevents/models"
	"devevents/services"
	"devevents/utils"
)

/* ---------- helpers ---------- */

type okImages struct{}

func (okImages) CheckImage(ctx context.Context, rawURL string) error { return nil }

type serverDeps struct {
	s  *gin.Engine
	mr *miniredis.Miniredis
	er *mocks.MockEventRepo
	br *mocks.MockBookingRepo
	ur *mocks.MockUserRepo
	n  *mocks.MockNotifier
}

const testBridgeKey = "bridge-secret"

func setupServerWithDeps(t *testing.T) serverDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	er := mocks.NewEventRepo()
	br := mocks.NewBookingRepo(er)
	ur := mocks.NewUserRepo()
	n := &mocks.MockNotifier{}

	s := gin.New()
	s.Use(middlewares.ResponseCache(rdb, 30*time.Second))
	limiters := RegisterRoutes(s, Deps{
		Events:   services.NewEventService(er),
		Bookings: services.NewBookingService(er, br, n, 5),
		Users:    services.NewUserService(ur, okImages{}, []string{"admin@example.com"}),
		Redis:    rdb,
		Cache:    utils.NewCacheInvalidator(rdb),
		Quota:    100,

		OAuthSecret: testBridgeKey,
	})
	t.Cleanup(limiters.Stop)
	return serverDeps{s: s, mr: mr, er: er, br: br, ur: ur, n: n}
}

func authToken(t *testing.T, uid int64, email, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(email, uid, role)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}
	return token
}

func doReq(s *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

/* ---------- auth & users ---------- */

func TestHealthz(t *testing.T) {
	deps := setupServerWithDeps(t)
	w := doReq(deps.s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("healthz code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_LimitersStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	er := mocks.NewEventRepo()
	s := gin.New()
	limiters := RegisterRoutes(s, Deps{
		Events:   services.NewEventService(er),
		Bookings: services.NewBookingService(er, mocks.NewBookingRepo(er), nil, 5),
		Users:    services.NewUserService(mocks.NewUserRepo(), okImages{}, nil),
	})
	// 沒設密鑰就沒有 /oauth 路由
	if w := doReq(s, http.MethodPost, "/oauth/github", `{"email":"octo@example.com"}`, ""); w.Code != http.StatusNotFound {
		t.Fatalf("oauth route without secret want 404, got %d", w.Code)
	}
	if len(limiters) != 3 {
		t.Fatalf("want 3 limiters, got %d", len(limiters))
	}
	limiters.Stop()
	for i, l := range limiters {
		if !l.Stopped() {
			t.Fatalf("limiter %d still running", i)
		}
	}
}

func TestSignupAndLogin(t *testing.T) {
	deps := setupServerWithDeps(t)

	w := doReq(deps.s, http.MethodPost, "/signup", `{"name":"Ada","email":"admin@example.com","password":"secret1"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup code=%d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password leaked: %s", w.Body.String())
	}

	w = doReq(deps.s, http.MethodPost, "/login", `{"email":"admin@example.com","password":"secret1"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	claims, err := utils.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Email != "admin@example.com" || claims.Role != services.RoleAdmin || claims.UserID == 0 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

// 帳密錯誤 → 401
func TestLogin_BadPassword_401(t *testing.T) {
	deps := setupServerWithDeps(t)
	_ = doReq(deps.s, http.MethodPost, "/signup", `{"name":"Ada","email":"a@b.com","password":"secret1"}`, "")

	w := doReq(deps.s, http.MethodPost, "/login", `{"email":"a@b.com","password":"wrong-one"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignup_Invalid_400(t *testing.T) {
	deps := setupServerWithDeps(t)
	w := doReq(deps.s, http.MethodPost, "/signup", `{"name":"Ada","email":"a@b.com","password":"123"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Field string `json:"field"`
	}
	decode(t, w, &resp)
	if resp.Field != "password" {
		t.Fatalf("want field=password, got %q", resp.Field)
	}
}

func TestAuthLimiter_429(t *testing.T) {
	deps := setupServerWithDeps(t)
	body := `{"email":"ghost@b.com","password":"whatever"}`
	for i := 0; i < 2; i++ {
		_ = doReq(deps.s, http.MethodPost, "/login", body, "")
	}
	w := doReq(deps.s, http.MethodPost, "/login", body, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", w.Code)
	}
}

func TestUser_GetAndUpdate(t *testing.T) {
	deps := setupServerWithDeps(t)
	u := models.User{Name: "Ada", Email: "ada@example.com", Image: services.DefaultAvatar}
	if err := deps.ur.Create(context.Background(), &u); err != nil {
		t.Fatal(err)
	}

	w := doReq(deps.s, http.MethodGet, "/api/user/1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get user code=%d body=%s", w.Code, w.Body.String())
	}
	if w := doReq(deps.s, http.MethodGet, "/api/user/abc", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
	if w := doReq(deps.s, http.MethodGet, "/api/user/99", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}

	token := authToken(t, u.ID, u.Email, services.RoleUser)
	w = doReq(deps.s, http.MethodPatch, "/api/user", `{"dataType":"name","value":"Ada Lovelace"}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("patch code=%d body=%s", w.Code, w.Body.String())
	}
	var ok struct {
		Success bool        `json:"success"`
		Data    models.User `json:"data"`
	}
	decode(t, w, &ok)
	if !ok.Success || ok.Data.Name != "Ada Lovelace" {
		t.Fatalf("unexpected %+v", ok)
	}

	w = doReq(deps.s, http.MethodPatch, "/api/user", `{"dataType":"name","value":"R2D2"}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d body=%s", w.Code, w.Body.String())
	}
	var bad struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decode(t, w, &bad)
	if bad.Success || bad.Message == "" {
		t.Fatalf("unexpected %+v", bad)
	}

	if w := doReq(deps.s, http.MethodPatch, "/api/user", `{"dataType":"name","value":"Ada"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestOAuthSignIn(t *testing.T) {
	deps := setupServerWithDeps(t)
	body := `{"name":"Octo Cat","email":"Octo@Example.com"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/oauth/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(BridgeKeyHeader, "wrong")
	deps.s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong bridge key want 401, got %d", w.Code)
	}
	if len(deps.ur.Users) != 0 {
		t.Fatalf("no account should be created")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/oauth/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(BridgeKeyHeader, testBridgeKey)
	deps.s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("oauth code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	claims, err := utils.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Email != "octo@example.com" || claims.Role != services.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if u, ok := deps.ur.Users["octo@example.com"]; !ok || u.HasPassword() {
		t.Fatalf("want a password-less account, got %+v", deps.ur.Users)
	}
}
