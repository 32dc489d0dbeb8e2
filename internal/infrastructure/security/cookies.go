package security

import (
	"net/http"
	"time"
)

const AuthCookieName = "auth_token"

func SetAuthToken(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure, // prod=true, dev=false
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearAuthToken expires the session cookie (emits Max-Age=0).
func ClearAuthToken(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ReadAuthToken returns the session cookie value, or "" when absent.
func ReadAuthToken(r *http.Request) string {
	c, err := r.Cookie(AuthCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
