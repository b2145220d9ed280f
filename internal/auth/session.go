package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// CookieName is the session cookie. It holds a signed JWT, nothing else.
	CookieName = "session"

	issuer = "game-list"

	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 365 * 24 * time.Hour
)

// SessionOptions configures cookie lifetimes and flags.
type SessionOptions struct {
	// SessionTTL bounds a "browser session" login: the cookie has no
	// Max-Age, so the browser drops it on exit, and the token inside expires
	// after SessionTTL even if the browser never exits.
	SessionTTL time.Duration
	// RememberTTL is the lifetime of a "remember me" login, used for both
	// the cookie Max-Age and the token expiry.
	RememberTTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// SessionService issues and checks the session cookie.
//
// The cookie carries an HS256 JWT whose subject is the user id. Nothing else
// about the user is in the token: whoever reads it must load the user row,
// which is what keeps the admin flag fresh on every request.
type SessionService struct {
	secret []byte
	opts   SessionOptions
	now    func() time.Time
}

// NewSessionService creates a SessionService. The secret must be at least 16
// characters; zero TTLs fall back to the defaults.
func NewSessionService(secret string, opts SessionOptions) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = DefaultRememberTTL
	}
	return &SessionService{secret: []byte(secret), opts: opts, now: time.Now}, nil
}

// claims is the JWT payload: registered claims plus the remember flag, so a
// refreshed cookie keeps the lifetime the user chose at login.
type claims struct {
	jwt.RegisteredClaims
	Remember bool `json:"rem,omitempty"`
}

// session is a verified token.
type session struct {
	userID   int64
	remember bool
	issued   time.Time
	expires  time.Time
}

// Generate signs a token for userID. The returned time is the token expiry.
func (s *SessionService) Generate(userID int64, remember bool) (string, time.Time, error) {
	now := s.now()
	ttl := s.opts.SessionTTL
	if remember {
		ttl = s.opts.RememberTTL
	}
	expires := now.Add(ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    issuer,
		},
		Remember: remember,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, expires, nil
}

// Validate parses and verifies a token and returns the user id in it.
func (s *SessionService) Validate(tokenStr string) (int64, error) {
	sess, err := s.parse(tokenStr)
	if err != nil {
		return 0, err
	}
	return sess.userID, nil
}

// parse verifies tokenStr and unpacks its claims.
//
// jwt.WithValidMethods pins HS256, which rules out "alg: none" and
// key-confusion tricks; issuer and expiry are required.
func (s *SessionService) parse(tokenStr string) (session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session{}, errors.New("auth: session expired")
		}
		return session{}, fmt.Errorf("auth: invalid session token: %w", err)
	}
	if !token.Valid || c.IssuedAt == nil {
		return session{}, errors.New("auth: invalid session token")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return session{}, fmt.Errorf("auth: session token has bad subject %q", c.Subject)
	}
	return session{
		userID:   userID,
		remember: c.Remember,
		issued:   c.IssuedAt.Time,
		expires:  c.ExpiresAt.Time,
	}, nil
}

// Establish issues a session cookie for userID. With remember=false the
// cookie is a browser-session cookie (no Max-Age).
func (s *SessionService) Establish(w http.ResponseWriter, userID int64, remember bool) error {
	token, expires, err := s.Generate(userID, remember)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(s.opts.RememberTTL.Seconds())
		cookie.Expires = expires
	}
	http.SetCookie(w, cookie)
	return nil
}

// Clear deletes the session cookie. The token is stateless, so this is all
// logout can do; a copied token stays valid until it expires.
func (s *SessionService) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve returns the user id carried by the request's session cookie.
func (s *SessionService) Resolve(r *http.Request) (int64, error) {
	sess, err := s.resolve(r)
	if err != nil {
		return 0, err
	}
	return sess.userID, nil
}

func (s *SessionService) resolve(r *http.Request) (session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return session{}, err
	}
	return s.parse(cookie.Value)
}

// refresh re-issues the cookie once less than half of the token's lifetime
// is left, keeping the remember choice made at login. An active user is
// therefore never logged out mid-visit. It reports whether a new cookie
// was set.
func (s *SessionService) refresh(w http.ResponseWriter, sess session) (bool, error) {
	halfway := sess.issued.Add(sess.expires.Sub(sess.issued) / 2)
	if s.now().Before(halfway) {
		return false, nil
	}
	if err := s.Establish(w, sess.userID, sess.remember); err != nil {
		return false, err
	}
	return true, nil
}
