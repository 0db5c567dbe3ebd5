package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/session"
)

func TestAuth_RegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	name := "t_" + uuid.NewString()[:8]
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE username = $1", name) })

	// Register.
	body := `{"username":"` + name + `","email":"` + name + `@test.local","password":"longenough"}`
	req := httptest.NewRequest("POST", "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.Auth.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.Balance != models.StartingBalance {
		t.Errorf("new account balance = %d, want %d", created.Balance, models.StartingBalance)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("register did not set a session cookie")
	}

	// Duplicate username must conflict.
	req = httptest.NewRequest("POST", "/api/register", strings.NewReader(body))
	rec = httptest.NewRecorder()
	env.Auth.Register(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	// Login with the username.
	req = httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"login":"`+name+`","password":"longenough"}`))
	rec = httptest.NewRecorder()
	env.Auth.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var loginResp struct {
		Needs2FASetup bool `json:"needs_2fa_setup"`
		Needs2FA      bool `json:"needs_2fa"`
	}
	json.Unmarshal(rec.Body.Bytes(), &loginResp)
	if loginResp.Needs2FASetup || loginResp.Needs2FA {
		t.Error("member login should not require 2FA")
	}

	// Wrong password.
	req = httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"login":"`+name+`","password":"wrongwrong"}`))
	rec = httptest.NewRecorder()
	env.Auth.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password login status = %d, want 401", rec.Code)
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","email":"a@b.co","password":"longenough"}`},
		{"bad email", `{"username":"validname","email":"not-an-email","password":"longenough"}`},
		{"short password", `{"username":"validname","email":"a@b.co","password":"short"}`},
		{"bad characters", `{"username":"no spaces!","email":"a@b.co","password":"longenough"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			env.Auth.Register(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAuth_AdminLoginRequires2FA(t *testing.T) {
	env := newTestEnv(t)
	admin := env.testUser(t, models.RoleAdmin)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"login":"`+admin.Username+`","password":"secret123"}`))
	rec := httptest.NewRecorder()
	env.Auth.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	var resp struct {
		Needs2FASetup bool `json:"needs_2fa_setup"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Needs2FASetup {
		t.Error("fresh admin login should require 2FA setup")
	}

	// The session opened for the admin is not yet 2FA-complete.
	cookie := rec.Result().Cookies()
	if len(cookie) == 0 {
		t.Fatal("no session cookie set")
	}
	getReq := httptest.NewRequest("GET", "/", nil)
	getReq.AddCookie(cookie[0])
	data, err := env.Sessions.Get(getReq.Context(), getReq)
	if err != nil || data == nil {
		t.Fatalf("session lookup: %v", err)
	}
	if data.TwoFADone {
		t.Error("admin session should start with 2FA pending")
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.testUser(t, models.RoleUser)

	body := `{"current_password":"secret123","new_password":"evenbetterpw"}`
	req := httptest.NewRequest("PUT", "/api/me/password", strings.NewReader(body))
	req = req.WithContext(ctxWithSessionData(req, sessionFor(user)))
	rec := httptest.NewRecorder()
	env.Auth.ChangePassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password status = %d, body = %s", rec.Code, rec.Body.String())
	}

	fresh, _ := env.UserStore.FindByID(user.ID)
	if !env.UserStore.CheckPassword(fresh, "evenbetterpw") {
		t.Error("new password not accepted after change")
	}
}

// ctxWithSessionData attaches session data the way LoadSession does.
func ctxWithSessionData(r *http.Request, data *session.Data) context.Context {
	return context.WithValue(r.Context(), middleware.SessionKey, data)
}
