package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/nimven/autotourney/services"
)

const (
	verifierCookieName = "cv"
	stateCookieName    = "oauth_state"
	loginCookieTTL     = 10 * time.Minute
	sessionCookieTTL   = 24 * time.Hour
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// Login drives both legs of the PKCE flow on one path: without a code it
// redirects to the authorization page, with a code it completes the login
// and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.startLogin(w, r)
		return
	}
	h.finishLogin(w, r, code)
}

func (h *AuthHandler) startLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	url, verifier, err := h.authService.LoginURL(state)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	h.setCookie(w, verifierCookieName, verifier, loginCookieTTL)
	h.setCookie(w, stateCookieName, state, loginCookieTTL)
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) finishLogin(w http.ResponseWriter, r *http.Request, code string) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		badRequestResponse(w, r, errors.New("oauth state mismatch"))
		return
	}

	verifierCookie, err := r.Cookie(verifierCookieName)
	if err != nil || verifierCookie.Value == "" {
		badRequestResponse(w, r, errors.New("missing code verifier cookie"))
		return
	}

	session, err := h.authService.CompleteLogin(r.Context(), code, verifierCookie.Value)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.setCookie(w, verifierCookieName, "", -time.Hour)
	h.setCookie(w, stateCookieName, "", -time.Hour)
	h.setCookie(w, sessionCookieName, session, sessionCookieTTL)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout drops the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, sessionCookieName, "", -time.Hour)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
