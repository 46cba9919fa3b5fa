package identity

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	stateCookie  = "garage_oidc_state"
	returnCookie = "garage_return_url"
)

func (p *OIDCProvider) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleLogin redirects to the authorization endpoint
func (p *OIDCProvider) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	p.setCookie(w, stateCookie, state, 600)

	if ret := r.URL.Query().Get("return_to"); isLocalPath(ret) {
		p.setCookie(w, returnCookie, ret, 600)
	}

	http.Redirect(w, r, p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// HandleCallback completes the code exchange and starts a session
func (p *OIDCProvider) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := p.logger.WithContext(ctx)

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		logger.Warn("OIDC callback with invalid state")
		http.Error(w, ErrInvalidState.Error(), http.StatusBadRequest)
		return
	}
	p.setCookie(w, stateCookie, "", -1)

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		logger.WithError(err).Error("Failed to exchange authorization code")
		http.Error(w, "failed to exchange token", http.StatusUnauthorized)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "missing id_token in response", http.StatusUnauthorized)
		return
	}

	identity, err := p.IdentityFromIDToken(ctx, rawIDToken)
	if err != nil {
		logger.WithError(err).Warn("Rejected ID token")
		http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
		return
	}

	session, err := p.sessions.CreateSession(ctx, identity)
	if err != nil {
		logger.WithError(err).Error("Failed to create session")
		http.Error(w, "failed to create session", http.StatusServiceUnavailable)
		return
	}
	p.setCookie(w, p.cfg.SessionCookie, session.ID, int(p.sessions.ttl.Seconds()))

	target := p.cfg.PostLoginURL
	if ret, err := r.Cookie(returnCookie); err == nil && isLocalPath(ret.Value) {
		target = ret.Value
		p.setCookie(w, returnCookie, "", -1)
	}

	logger.WithField("identity_id", identity.ID).Info("User signed in")
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLogout ends the current session
func (p *OIDCProvider) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(p.cfg.SessionCookie); err == nil && cookie.Value != "" {
		if err := p.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			p.logger.WithContext(r.Context()).WithError(err).Warn("Failed to delete session")
		}
	}
	p.setCookie(w, p.cfg.SessionCookie, "", -1)
	http.Redirect(w, r, p.cfg.SignInURL, http.StatusFound)
}

// isLocalPath accepts only same-origin absolute paths as redirect targets
func isLocalPath(s string) bool {
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host == "" && u.Scheme == ""
}

