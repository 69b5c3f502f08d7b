package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

type mockAuthService struct {
	registerFn func(ctx context.Context, name, surname, email, password, passwordConfirm string) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *model.User, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Register(ctx context.Context, name, surname, email, password, passwordConfirm string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, surname, email, password, passwordConfirm)
	}
	return &model.User{ID: "user-1", Name: name, Surname: surname, Email: email}, nil
}
func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "token", &model.User{ID: "user-1", Email: email}, nil
}
func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1", Name: "Jo", Surname: "Do", Email: "jo@x.com"})
	ctx = middleware.ContextWithSession(ctx, &model.Session{ID: "sess-1", UserID: "user-1"})
	return req.WithContext(ctx)
}

func TestRegisterHandler_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	body := `{"name":"Jo","surname":"Do","email":"jo@x.com","password":"longpw1234","password_confirm":"longpw1234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var resp struct {
		User userResponse `json:"user"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.User.Email != "jo@x.com" {
		t.Errorf("user.email = %q, want jo@x.com", resp.User.Email)
	}
	// パスワードはレスポンスに含まれない（シリアライズ部に現れないこと）
	if strings.Contains(w.Body.String(), "password") {
		t.Error("response must not contain password fields")
	}
}

func TestRegisterHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLoc string
	}{
		{
			name:    "短いパスワード",
			body:    `{"name":"Jo","surname":"Do","email":"jo@x.com","password":"short","password_confirm":"short"}`,
			wantLoc: "password",
		},
		{
			name:    "不正なメール",
			body:    `{"name":"Jo","surname":"Do","email":"not-an-email","password":"longpw1234","password_confirm":"longpw1234"}`,
			wantLoc: "email",
		},
		{
			name:    "短い名前",
			body:    `{"name":"J","surname":"Do","email":"jo@x.com","password":"longpw1234","password_confirm":"longpw1234"}`,
			wantLoc: "name",
		},
		{
			name:    "確認パスワード不一致",
			body:    `{"name":"Jo","surname":"Do","email":"jo@x.com","password":"longpw1234","password_confirm":"different12"}`,
			wantLoc: "password_confirm",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewAuthHandler(&mockAuthService{
				registerFn: func(ctx context.Context, name, surname, email, password, passwordConfirm string) (*model.User, error) {
					called = true
					return nil, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Register(w, req)

			if called {
				t.Error("service should not be called on validation failure")
			}
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", w.Code)
			}
			var resp struct {
				Detail []FieldError `json:"detail"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			found := false
			for _, fe := range resp.Detail {
				if fe.Loc == tt.wantLoc {
					found = true
				}
			}
			if !found {
				t.Errorf("detail %v has no error for loc %q", resp.Detail, tt.wantLoc)
			}
		})
	}
}

func TestRegisterHandler_MalformedJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestLoginHandler_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "issued-token", &model.User{ID: "user-1", Name: "Jo", Surname: "Do", Email: email}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"jo@x.com","password":"longpw1234"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp loginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.AccessToken != "issued-token" {
		t.Errorf("access_token = %q, want issued-token", resp.AccessToken)
	}
	if resp.Type != "Bearer" {
		t.Errorf("type = %q, want Bearer", resp.Type)
	}
	if resp.User.Email != "jo@x.com" {
		t.Errorf("user.email = %q, want jo@x.com", resp.User.Email)
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "", nil, model.NewInvalidCredentialsError()
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"jo@x.com","password":"wrong"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Detail != "Invalid credentials" {
		t.Errorf("detail = %v, want Invalid credentials", resp.Detail)
	}
}

func TestLogoutHandler_Success(t *testing.T) {
	loggedOut := ""
	h := NewAuthHandler(&mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	})

	req := authedRequest(http.MethodDelete, "/api/v1/auth/logout", "")
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if loggedOut != "sess-1" {
		t.Errorf("logged out session = %q, want sess-1", loggedOut)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["user_id"] != "user-1" {
		t.Errorf("user_id = %q, want user-1", resp["user_id"])
	}
	if resp["message"] == "" {
		t.Error("expected non-empty message")
	}
}

func TestMeHandler_ReturnsAuthenticatedUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := authedRequest(http.MethodGet, "/api/v1/auth/me", "")
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp meResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Email != "jo@x.com" {
		t.Errorf("email = %q, want jo@x.com", resp.Email)
	}
}

func TestMeHandler_UnauthenticatedContext(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
