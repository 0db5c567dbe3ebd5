// Package router sets up all HTTP routes and middleware chains for the
// docshare server. It organizes routes into public, member and admin
// groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docshare/internal/handlers"
	"docshare/internal/middleware"
	"docshare/internal/session"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
	Auth      *handlers.Auth
	Documents *handlers.Documents
	Uploads   *handlers.Uploads
	Social    *handlers.Social
	Wallet    *handlers.Wallet
	News      *handlers.News
	Admin     *handlers.Admin
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check.
	r.Get("/health", healthHandler)

	// Auth endpoints get a tighter rate limit to slow down guessing.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	uploadLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		// Account lifecycle.
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})
		r.Post("/logout", h.Auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", h.Auth.TwoFASetup)
			r.Post("/2fa/verify", h.Auth.TwoFAVerify)
		})

		// Public browsing.
		r.Get("/documents", h.Documents.List)
		r.Get("/documents/latest", h.Documents.Latest)
		r.Get("/documents/{id}", h.Documents.Get)
		r.Get("/documents/{id}/preview", h.Documents.Preview)
		r.Get("/documents/{id}/download", h.Documents.Download)
		r.Get("/categories", h.Documents.Categories)
		r.Get("/news", h.News.List)
		r.Get("/news/{id}", h.News.Get)

		// Guest uploads land in the moderation queue.
		r.With(uploadLimiter.Middleware).Post("/uploads/guest", h.Uploads.Guest)

		// Signed-in area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/me", h.Auth.Me)
			r.Put("/me", h.Auth.UpdateProfile)
			r.Put("/me/password", h.Auth.ChangePassword)
			r.Get("/me/documents", h.Documents.Mine)

			r.With(uploadLimiter.Middleware).Post("/uploads", h.Uploads.Member)

			r.Post("/documents/{id}/like", h.Social.Like)
			r.Post("/documents/{id}/comments", h.Social.Comment)
			r.Post("/documents/{id}/report", h.Social.Report)
			r.Post("/documents/{id}/purchase", h.Wallet.Purchase)

			r.Get("/wallet", h.Wallet.Show)
			r.Post("/wallet/recharge", h.Wallet.Recharge)
		})
	})

	// Authenticated + 2FA-verified admin area.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(middleware.RequireAdmin)

		r.Get("/dashboard", h.Admin.Dashboard)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.Admin.AllDocuments)
			r.Get("/pending", h.Admin.PendingDocuments)
			r.Post("/{id}/approve", h.Admin.Approve)
			r.Post("/{id}/reject", h.Admin.Reject)
			r.Put("/{id}", h.Admin.UpdateDocument)
			r.Post("/{id}/file", h.Admin.ReplaceFile)
			r.Post("/{id}/clear-preview", h.Admin.ClearPreview)
			r.Delete("/{id}", h.Admin.DeleteDocument)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.Admin.CreateCategory)
			r.Put("/{id}", h.Admin.UpdateCategory)
			r.Delete("/{id}", h.Admin.DeleteCategory)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Admin.Users)
			r.Delete("/{id}", h.Admin.DeleteUser)
			r.Post("/{id}/reset-2fa", h.Admin.ResetUserTOTP)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.Admin.Reports)
			r.Post("/{id}/resolve", h.Admin.ResolveReport)
		})

		r.Delete("/comments/{id}", h.Admin.DeleteComment)

		r.Route("/news", func(r chi.Router) {
			r.Post("/", h.Admin.CreateNews)
			r.Put("/{id}", h.Admin.UpdateNews)
			r.Delete("/{id}", h.Admin.DeleteNews)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
