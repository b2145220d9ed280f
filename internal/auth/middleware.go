package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/flash"
	"github.com/sakif/game-list/internal/model"
)

// contextKey is unexported so only this package can read or write the
// identity stored on a request context.
type contextKey string

const userKey contextKey = "user"

const (
	// LoginPath is where RequireLogin and RequireAdmin send callers.
	LoginPath = "/login"
	// NextParam carries the originally requested path through the login form.
	NextParam = "next"

	loginRequiredMessage = "Please log in to access this page."
	adminRequiredMessage = "Please log in with an administrator account to access this page."
)

// UserLoader is the slice of the user repository the middleware needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Identify resolves the session cookie into a *model.User for every request.
//
// The user row is loaded fresh each time, so a revoked admin flag or a
// deleted account takes effect on the very next request. A cookie past half
// its lifetime is re-issued with the same remember choice. A missing, invalid
// or expired cookie, or one naming a user that no longer exists, leaves the
// request anonymous; the stale cookie is cleared. A database failure is a 500.
func Identify(sessions *SessionService, users UserLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(CookieName); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.resolve(r)
			if err != nil {
				logger.Debug("discarding session cookie", slog.String("error", err.Error()))
				sessions.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			userID := sess.userID
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					sessions.Clear(w)
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("loading session user",
					slog.Int64("userID", userID),
					slog.String("error", err.Error()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if _, err := sessions.refresh(w, sess); err != nil {
				logger.Warn("refreshing session cookie",
					slog.Int64("userID", userID),
					slog.String("error", err.Error()),
				)
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireLogin short-circuits anonymous requests to the login page, keeping
// the requested path as the post-login target.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			redirectToLogin(w, r, loginRequiredMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets through only users whose admin flag is set right now.
// Everyone else, signed in or not, is sent to the login page with the admin
// path preserved.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !model.IsAdmin(UserFromContext(r.Context())) {
			redirectToLogin(w, r, adminRequiredMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectToLogin sends the browser to the login page. The notice is only
// queued for page navigations: a script calling /add gets the redirect but
// nobody would see the message until some later, unrelated page.
func redirectToLogin(w http.ResponseWriter, r *http.Request, msg string) {
	if isPageRequest(r) {
		flash.Add(w, r, msg)
	}
	http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
}

// isPageRequest reports whether r is a browser navigation rather than a
// script or API call.
func isPageRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// WithUser stores the resolved identity on ctx.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the identity resolved by Identify, or nil for an
// anonymous request.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// LogoutPath is never carried as a post-login target: returning there would
// end the session that was just established.
const LogoutPath = "/logout"

// LoginURL builds the login URL that returns to next after signing in.
func LoginURL(next string) string {
	path, _, _ := strings.Cut(next, "?")
	if path == "" || path == LoginPath || path == LogoutPath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{NextParam: {next}}.Encode()
}

// SafeRedirect returns next when it is a path on this site, fallback
// otherwise. "//evil.example" and "/\evil.example" are protocol-relative to
// browsers, so both are refused along with anything carrying a scheme.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == LogoutPath {
		return fallback
	}
	return next
}
