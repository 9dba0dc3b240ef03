package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// authContextKey is the echo.Context key under which the AuthContext is
// stored.
const authContextKey = "auth"

// Claims are the token claims the application cares about.
type Claims struct {
	Subject string // identity provider subject id (sub)
	Email   string // email claim, may be empty
	Name    string // name claim, may be empty
}

// TokenVerifier checks a raw bearer token's signature, issuer, audience
// and expiry, and extracts claims.  Implementations: OIDCVerifier (JWKS
// from the provider) and StaticVerifier (fixed RSA key, used in dev and
// tests).
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// AuthContext carries the authenticated caller through a request.  It is
// an explicit struct rather than loose context values so handlers state
// exactly what they depend on.
type AuthContext struct {
	Subject  string      // verified subject id
	Token    string      // raw bearer token as presented
	User     *model.User // user row loaded for the subject
	IsActive bool        // derived: members always, admins once verified
}

// AuthFrom extracts the AuthContext placed by Authenticate.  Handlers call
// this instead of reading context keys directly.
func AuthFrom(c echo.Context) (*AuthContext, error) {
	ac, ok := c.Get(authContextKey).(*AuthContext)
	if !ok || ac == nil || ac.User == nil {
		return nil, errors.New("missing auth context")
	}
	return ac, nil
}

// SetAuth stores an AuthContext.  Exported for handler tests.
func SetAuth(c echo.Context, ac *AuthContext) { c.Set(authContextKey, ac) }

// Authenticate returns middleware implementing the two first stages of the
// access-control gate: token verification and user loading.  A missing or
// invalid token yields 401; a token whose subject has no user row yields
// 404 (the caller must sync the profile first).  On success the
// AuthContext is attached and the chain continues.
func Authenticate(verifier TokenVerifier, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := verifier.Verify(ctx, raw)
			if err != nil {
				return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			}

			u, err := users.GetBySubject(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return respond.Fail(c, http.StatusNotFound, "Not Found", "user not registered")
				}
				return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "user lookup failed")
			}

			SetAuth(c, &AuthContext{
				Subject:  claims.Subject,
				Token:    raw,
				User:     u,
				IsActive: isActive(u),
			})
			return next(c)
		}
	}
}

// isActive derives the activity flag gating protected actions.  Members
// are always active; admins and super-admins act only once a super-admin
// has verified them.
func isActive(u *model.User) bool {
	if u.Role == model.RoleMember {
		return true
	}
	return u.IsVerified
}

// OIDCVerifier validates RS256 tokens against the identity provider's
// published JWKS, expected audience and issuer.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier performs OIDC discovery against the issuer and builds a
// verifier pinned to the given audience.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

// Verify implements TokenVerifier.
func (o *OIDCVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	tok, err := o.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var extra struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	_ = tok.Claims(&extra) // optional claims; absence is fine
	return &Claims{Subject: tok.Subject, Email: extra.Email, Name: extra.Name}, nil
}

// StaticVerifier validates RS256 tokens against a fixed RSA public key.
// Issuer and audience are still enforced; only the key distribution
// differs from OIDCVerifier.
type StaticVerifier struct {
	key      any
	issuer   string
	audience string
}

// NewStaticVerifier parses a PEM-encoded RSA public key.
func NewStaticVerifier(pemKey []byte, issuer, audience string) (*StaticVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &StaticVerifier{key: key, issuer: issuer, audience: audience}, nil
}

// Verify implements TokenVerifier.
func (s *StaticVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("missing subject")
	}
	out := &Claims{Subject: sub}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		out.Name = v
	}
	return out, nil
}
