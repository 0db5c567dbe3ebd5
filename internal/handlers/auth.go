package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/session"
	"docshare/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

// Register creates a member account and signs it in. New accounts start
// with the default coin balance.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string  `json:"username"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		FullName *string `json:"full_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if msg := validateRegistration(req.Username, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.userStore.Create(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, req.FullName, models.RoleUser)
	if err == store.ErrUserExists {
		writeError(w, http.StatusConflict, "username or email already taken")
		return
	}
	if err != nil {
		serverError(w, "register failed", err)
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		TwoFADone: true, // members have no TOTP step
	})
	if err != nil {
		serverError(w, "session create failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and opens a session. Admins must then
// complete the TOTP step before the session is fully trusted.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"` // username or email
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.userStore.FindByLogin(strings.TrimSpace(req.Login))
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Admin sessions start with 2FA pending; members are done immediately.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		TwoFADone: !user.IsAdmin(),
	})
	if err != nil {
		serverError(w, "session create failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":            user,
		"needs_2fa_setup": user.Needs2FASetup(),
		"needs_2fa":       user.IsAdmin() && user.TOTPEnabled,
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me returns the signed-in user's account.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "account lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the signed-in user's email and full name.
func (a *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Email    string  `json:"email"`
		FullName *string `json:"full_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}

	err := a.userStore.UpdateProfile(sess.UserID, strings.TrimSpace(req.Email), req.FullName)
	if err == store.ErrUserExists {
		writeError(w, http.StatusConflict, "email already taken")
		return
	}
	if err != nil {
		serverError(w, "profile update failed", err)
		return
	}
	a.Me(w, r)
}

// ChangePassword verifies the current password and sets a new one.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.New) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "account lookup failed", err)
		return
	}
	if !a.userStore.CheckPassword(user, req.Current) {
		writeError(w, http.StatusUnauthorized, "current password is wrong")
		return
	}

	if err := a.userStore.ChangePassword(user.ID, req.New); err != nil {
		serverError(w, "password change failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// TwoFASetup generates a TOTP secret for the signed-in admin and
// returns it with a provisioning QR code as base64 PNG.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "DocShare",
		AccountName: sess.Username,
	})
	if err != nil {
		serverError(w, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		serverError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		serverError(w, "qr code generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"qr_png":  base64.StdEncoding.EncodeToString(qrPNG),
		"otp_url": key.URL(),
	})
}

// TwoFAVerify validates the TOTP code and completes authentication.
// First-time verification also enables TOTP on the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "user lookup for 2fa failed", err)
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusConflict, "two-factor setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			serverError(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, "session update failed", err)
		return
	}

	slog.Info("2fa verified", "user", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
