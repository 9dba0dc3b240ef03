package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/repository"
)

const (
	testIssuer   = "https://issuer.test"
	testAudience = "studentsadda-api"
)

type testKeys struct {
	priv *rsa.PrivateKey
	pem  []byte
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return testKeys{priv: priv, pem: pemBytes}
}

func (k testKeys) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	raw, err := tok.SignedString(k.priv)
	require.NoError(t, err)
	return raw
}

func (k testKeys) validClaims(subject string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   subject,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"email": "user@example.com",
		"name":  "Test User",
	}
}

func TestStaticVerifier(t *testing.T) {
	keys := newTestKeys(t)
	v, err := NewStaticVerifier(keys.pem, testIssuer, testAudience)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		raw := keys.sign(t, keys.validClaims("sub-1"))
		claims, err := v.Verify(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "sub-1", claims.Subject)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "Test User", claims.Name)
	})

	t.Run("expired token", func(t *testing.T) {
		c := keys.validClaims("sub-1")
		c["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := v.Verify(context.Background(), keys.sign(t, c))
		assert.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := keys.validClaims("sub-1")
		delete(c, "exp")
		_, err := v.Verify(context.Background(), keys.sign(t, c))
		assert.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := keys.validClaims("sub-1")
		c["aud"] = "someone-else"
		_, err := v.Verify(context.Background(), keys.sign(t, c))
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := keys.validClaims("sub-1")
		c["iss"] = "https://evil.test"
		_, err := v.Verify(context.Background(), keys.sign(t, c))
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := keys.validClaims("")
		delete(c, "sub")
		_, err := v.Verify(context.Background(), keys.sign(t, c))
		assert.Error(t, err)
	})

	t.Run("hmac token rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, keys.validClaims("sub-1"))
		raw, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), raw)
		assert.Error(t, err)
	})
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "subject_id", "name", "email", "phone",
		"avatar_url", "role", "is_verified", "created_at", "updated_at"})
}

func TestAuthenticate(t *testing.T) {
	keys := newTestKeys(t)
	verifier, err := NewStaticVerifier(keys.pem, testIssuer, testAudience)
	require.NoError(t, err)

	run := func(t *testing.T, authHeader string, expect func(mock sqlmock.Sqlmock)) *httptest.ResponseRecorder {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		if expect != nil {
			expect(mock)
		}

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		mw := Authenticate(verifier, repository.NewUserRepo(db))
		handler := mw(func(c echo.Context) error {
			ac, err := AuthFrom(c)
			require.NoError(t, err)
			return c.JSON(http.StatusOK, ac.User)
		})
		require.NoError(t, handler(c))
		require.NoError(t, mock.ExpectationsWereMet())
		return rec
	}

	t.Run("missing header yields 401", func(t *testing.T) {
		rec := run(t, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token yields 401", func(t *testing.T) {
		rec := run(t, "Bearer not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown subject yields 404", func(t *testing.T) {
		raw := keys.sign(t, keys.validClaims("ghost"))
		rec := run(t, "Bearer "+raw, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT .+ FROM users WHERE subject_id").
				WithArgs("ghost").
				WillReturnRows(userRows())
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "user not registered")
	})

	t.Run("known subject reaches handler", func(t *testing.T) {
		raw := keys.sign(t, keys.validClaims("sub-42"))
		now := time.Now()
		rec := run(t, "Bearer "+raw, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT .+ FROM users WHERE subject_id").
				WithArgs("sub-42").
				WillReturnRows(userRows().AddRow(42, "sub-42", "Test User",
					"user@example.com", nil, nil, "MEMBER", false, now, now))
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"subjectId":"sub-42"`)
	})
}
