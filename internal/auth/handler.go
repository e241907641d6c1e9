// internal/auth/handler.go
package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"booknest/internal/platform/web"
	"booknest/internal/result"
	"booknest/internal/session"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /api/auth.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.handleSignUp)
	r.Post("/signin", h.handleSignIn)
	r.Post("/otp", h.handleSignInWithOTP)
	r.Post("/verify", h.handleVerifyOTP)
	r.Post("/recover", h.handleRecover)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/signout", h.handleSignOut)
	r.Get("/session", h.handleGetSession)
	r.Put("/user", h.handleUpdateUser)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpInput
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.SignUp(r.Context(), req)))
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.SignInWithPassword(r.Context(), req.Email, req.Password)))
}

func (h *Handler) handleSignInWithOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Done(h.service.SignInWithOTP(r.Context(), req.Email)))
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string  `json:"email"`
		Token string  `json:"token"`
		Type  OTPType `json:"type"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = OTPEmail
	}
	result.Write(w, result.Of(h.service.VerifyOTP(r.Context(), req.Email, req.Token, req.Type)))
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		RedirectTo string `json:"redirect_to"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Done(h.service.ResetPasswordForEmail(r.Context(), req.Email, req.RedirectTo)))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.RefreshSession(r.Context(), req.RefreshToken)))
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Done(h.service.SignOut(r.Context(), sess)))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(sess, nil))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Done(h.service.UpdateUser(r.Context(), sess, req.Password)))
}

// Middleware attaches the session for a valid bearer token. Requests without
// a token pass through anonymously; a present but invalid token gets 401.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				result.WriteError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			sess, err := svc.GetSession(r.Context(), token)
			if err != nil {
				result.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}
