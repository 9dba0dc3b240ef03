package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testIdentity(t *testing.T) (*Identity, *SessionStore) {
	t.Helper()
	store, _ := newTestStore(t, time.Hour)
	return &Identity{
		cfg:      config.GatewayConfig{CookieName: "sa_session"},
		sessions: store,
		log:      testLogger(),
	}, store
}

func newTestProxy(t *testing.T, backend *httptest.Server, identity *Identity) *Proxy {
	t.Helper()
	p, err := NewProxy(backend.URL, identity, testLogger())
	require.NoError(t, err)
	return p
}

func doProxy(t *testing.T, p *Proxy, r route, req *http.Request, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, p.handler(r)(c))
	return rec
}

func TestProxyForwardsPublicRoute(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/libraries", r.URL.Path)
		assert.Equal(t, "city=Pune", r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/libraries?city=Pune", nil)
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/libraries", public: true}, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestProxyRejectsBadPathParam(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached")
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/libraries/abc", nil)
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/libraries/:id", public: true},
		req, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyRequiresSession(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached")
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/users/me"}, req, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "login required")
}

func TestProxyAttachesBearerToken(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":1}}`))
	}))
	defer backend.Close()

	identity, store := testIdentity(t)
	sess, err := store.Create(context.Background(), Session{
		Subject:     "sub-1",
		AccessToken: "tok-abc",
		TokenExpiry: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "sa_session", Value: sess.ID})
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/users/me"}, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProxyRejectsInvalidEnvelope(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/libraries", nil)
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/libraries", public: true}, req, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid response structure")
}

func TestProxyPassesBackendErrorsThrough(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"error":"Conflict","message":"seat already booked for this time slot"}`))
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/guest", nil)
	rec := doProxy(t, p, route{method: http.MethodPost, path: "/v1/bookings/guest", public: true}, req, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "seat already booked")
}

func TestProxyStreamsFileDownload(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="booking-x.pdf"`)
		_, _ = w.Write(pdf)
	}))
	defer backend.Close()

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/guest/bill", nil)
	rec := doProxy(t, p, route{method: http.MethodPost, path: "/v1/bookings/guest/bill", public: true, file: true}, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, pdf, rec.Body.Bytes())
}

func TestProxyBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close() // immediately, so the address refuses connections

	identity, _ := testIdentity(t)
	p := newTestProxy(t, backend, identity)

	req := httptest.NewRequest(http.MethodGet, "/api/libraries", nil)
	rec := doProxy(t, p, route{method: http.MethodGet, path: "/v1/libraries", public: true}, req, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
