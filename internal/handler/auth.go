package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/flash"
	"github.com/sakif/game-list/internal/service"
	"github.com/sakif/game-list/internal/validation"
)

// AuthHandler serves sign-up, login, logout and the settings page.
//
// DEPENDENCY CHAIN:
//   - accounts *service.AuthService → registration and credential rules
//   - sessions *auth.SessionService → issues and clears the session cookie
//   - renderer *Renderer            → HTML pages
type AuthHandler struct {
	accounts *service.AuthService
	sessions *auth.SessionService
	renderer *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	sessions *auth.SessionService,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleSignupForm shows an empty sign-up form.
//
// HTTP: GET /signup
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageSignup, Page{})
}

// HandleSignup registers an account and sends the browser to the login page.
// Any failure re-renders the form with what was typed, minus passwords.
//
// HTTP: POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	form := validation.ParseRegisterForm(r)

	_, err := h.accounts.Register(r.Context(), form)
	if err != nil {
		page := Page{Form: map[string]string{"email": form.Email, "username": form.Username}}
		if !h.formError(w, r, err, &page) {
			return
		}
		h.renderer.Render(w, r, http.StatusOK, PageSignup, page)
		return
	}

	flash.Add(w, r, service.MsgRegistered)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// HandleLoginForm shows the login form. The next query parameter is carried
// into a hidden field so a successful login returns there.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageLogin, Page{Next: r.URL.Query().Get(auth.NextParam)})
}

// HandleLogin checks credentials, issues the session cookie and redirects to
// the requested page, or the feed when none (or an unsafe one) was given.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form := validation.ParseLoginForm(r)
	next := r.PostFormValue(auth.NextParam)
	if next == "" {
		next = r.URL.Query().Get(auth.NextParam)
	}

	user, err := h.accounts.Authenticate(r.Context(), form)
	if err != nil {
		page := Page{Form: map[string]string{"username": form.Username}, Next: next}
		if !h.formError(w, r, err, &page) {
			return
		}
		h.renderer.Render(w, r, http.StatusOK, PageLogin, page)
		return
	}

	if err := h.sessions.Establish(w, user.ID, form.Remember); err != nil {
		h.renderer.ServerError(w, r, err)
		return
	}
	h.logger.Info("user logged in", slog.Int64("userID", user.ID), slog.Bool("remember", form.Remember))
	http.Redirect(w, r, auth.SafeRedirect(next, "/feed"), http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /logout (login required)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSettingForm shows the change-password form.
//
// HTTP: GET /setting (login required)
func (h *AuthHandler) HandleSettingForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageSetting, Page{})
}

// HandleSetting changes the signed-in user's password.
//
// HTTP: POST /setting (login required)
func (h *AuthHandler) HandleSetting(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	form := validation.ParsePasswordForm(r)

	page := Page{}
	if err := h.accounts.ChangePassword(r.Context(), user.ID, form); err != nil {
		if !h.formError(w, r, err, &page) {
			return
		}
	} else {
		page.Message = service.MsgPasswordUpdated
	}
	h.renderer.Render(w, r, http.StatusOK, PageSetting, page)
}

// formError copies a user-facing error onto page. It returns false after
// answering with a 500 itself when err is not something a form can show.
func (h *AuthHandler) formError(w http.ResponseWriter, r *http.Request, err error, page *Page) bool {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		page.Errors = apperror.FieldsOf(err)
		if len(page.Errors) == 0 {
			page.Message = apperror.MessageOf(err)
		}
	case errors.Is(err, apperror.ErrConflict), errors.Is(err, apperror.ErrUnauthorized):
		page.Message = apperror.MessageOf(err)
	default:
		h.renderer.ServerError(w, r, err)
		return false
	}
	return true
}
