// Package flash carries one-shot notices across a redirect.
//
// A handler that redirects calls Add; the next page rendered for that browser
// calls Pop, which returns the queued messages and deletes the cookie. The
// messages are base64-encoded JSON so any text survives the cookie syntax.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const cookieName = "flash"

// Add queues msg for the next rendered page. Messages already queued on r
// are kept, in order.
func Add(w http.ResponseWriter, r *http.Request, msg string) {
	msgs := append(read(r), msg)

	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the queued messages and clears them. It returns nil when
// nothing is queued.
func Pop(w http.ResponseWriter, r *http.Request) []string {
	msgs := read(r)
	if msgs == nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return msgs
}

// read decodes the flash cookie. A tampered or garbled cookie reads as empty.
func read(r *http.Request) []string {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}
