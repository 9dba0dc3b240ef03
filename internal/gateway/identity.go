package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/studentsadda/studentsadda/internal/config"
	"github.com/studentsadda/studentsadda/internal/respond"
)

const stateCookie = "sa_oauth_state"

// Identity runs the OIDC login flow and resolves sessions to bearer
// tokens for the backend API.
type Identity struct {
	cfg      config.GatewayConfig
	sessions *SessionStore
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   *oauth2.Config
	client   *http.Client // backend calls (profile sync)
	log      *logrus.Logger
}

// NewIdentity discovers the OIDC provider and prepares the OAuth2 flow.
func NewIdentity(ctx context.Context, cfg config.GatewayConfig, sessions *SessionStore,
	log *logrus.Logger) (*Identity, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover OIDC provider: %w", err)
	}
	return &Identity{
		cfg:      cfg,
		sessions: sessions,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		oauth2: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "offline_access"},
		},
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}, nil
}

// Session resolves the caller's session from the cookie, or nil when the
// browser is not logged in.
func (i *Identity) Session(c echo.Context) *Session {
	cookie, err := c.Cookie(i.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := i.sessions.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			i.log.WithError(err).Warn("session lookup failed")
		}
		return nil
	}
	return sess
}

// AccessToken returns a bearer token for the backend, refreshing through
// the provider when the stored token has expired.  A refresh failure is
// terminal; the caller should treat it as an expired login.
func (i *Identity) AccessToken(ctx context.Context, sess *Session) (string, error) {
	tok := &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.TokenExpiry,
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	fresh, err := i.oauth2.TokenSource(ctx, tok).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}
	if fresh.AccessToken != sess.AccessToken {
		sess.AccessToken = fresh.AccessToken
		if fresh.RefreshToken != "" {
			sess.RefreshToken = fresh.RefreshToken
		}
		sess.TokenExpiry = fresh.Expiry
		if err := i.sessions.Update(ctx, sess); err != nil {
			i.log.WithError(err).Warn("session token update failed")
		}
	}
	return fresh.AccessToken, nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Login handles GET /auth/login: stores a state nonce in a short-lived
// cookie and redirects to the provider's authorization endpoint.
func (i *Identity) Login(c echo.Context) error {
	state, err := randomState()
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "login init failed")
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, i.oauth2.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// syncProfile upserts the login with the backend, keyed by the token's
// subject id, so the bearer token resolves to a user row on the first
// proxied request.
func (i *Identity) syncProfile(ctx context.Context, accessToken, name, email string) error {
	body, err := json.Marshal(map[string]string{"name": name, "email": email})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(i.cfg.BackendURL, "/")+"/v1/users/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)

	res, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("backend sync: status %d", res.StatusCode)
	}
	return nil
}

// Callback handles GET /auth/callback: checks the state nonce, exchanges
// the code, verifies the ID token, syncs the profile to the backend,
// creates the Redis session and sets the session cookie.
func (i *Identity) Callback(c echo.Context) error {
	stateC, err := c.Cookie(stateCookie)
	if err != nil || stateC.Value == "" || c.QueryParam("state") != stateC.Value {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "state mismatch")
	}
	code := c.QueryParam("code")
	if code == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "missing authorization code")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tok, err := i.oauth2.Exchange(ctx, code)
	if err != nil {
		i.log.WithError(err).Warn("code exchange failed")
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "login failed")
	}
	rawID, ok := tok.Extra("id_token").(string)
	if !ok {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "missing id_token in response")
	}
	idToken, err := i.verifier.Verify(ctx, rawID)
	if err != nil {
		i.log.WithError(err).Warn("id token verification failed")
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "login failed")
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "invalid token claims")
	}

	// The sync is retried on the next explicit /api/users/sync, so a
	// transient backend failure does not abort the login.
	if err := i.syncProfile(ctx, tok.AccessToken, claims.Name, claims.Email); err != nil {
		i.log.WithError(err).Warn("backend profile sync failed")
	}

	sess, err := i.sessions.Create(ctx, Session{
		Subject:      idToken.Subject,
		Email:        claims.Email,
		Name:         claims.Name,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
	})
	if err != nil {
		i.log.WithError(err).Error("session create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "login failed")
	}

	c.SetCookie(&http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	c.SetCookie(&http.Cookie{
		Name:     i.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   i.cfg.SessionTTLHours * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	i.log.WithField("subject", sess.Subject).Info("login completed")
	return c.Redirect(http.StatusFound, "/")
}

// Logout handles POST /auth/logout: deletes the Redis session and clears
// the cookie.  Logging out twice is fine.
func (i *Identity) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(i.cfg.CookieName); err == nil && cookie.Value != "" {
		if err := i.sessions.Delete(c.Request().Context(), cookie.Value); err != nil {
			i.log.WithError(err).Warn("session delete failed")
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     i.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return respond.OKMsg(c, http.StatusOK, nil, "logged out")
}
