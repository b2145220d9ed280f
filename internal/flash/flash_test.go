package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carry copies the cookies set on rec into a fresh request, like a browser
// following a redirect.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestAddThenPop(t *testing.T) {
	rec := httptest.NewRecorder()
	Add(rec, httptest.NewRequest(http.MethodPost, "/signup", nil), "Please log in, friend.")

	next := carry(rec)
	out := httptest.NewRecorder()
	msgs := Pop(out, next)

	assert.Equal(t, []string{"Please log in, friend."}, msgs)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, cookieName, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestAdd_KeepsQueuedMessages(t *testing.T) {
	first := httptest.NewRecorder()
	Add(first, httptest.NewRequest(http.MethodGet, "/", nil), "one")

	second := httptest.NewRecorder()
	Add(second, carry(first), "two")

	assert.Equal(t, []string{"one", "two"}, Pop(httptest.NewRecorder(), carry(second)))
}

func TestPop_Empty(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Nil(t, Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Empty(t, rec.Result().Cookies(), "Pop without messages must not touch cookies")
}

func TestPop_Garbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "%%%not-base64"})

	assert.Nil(t, Pop(httptest.NewRecorder(), req))
}
