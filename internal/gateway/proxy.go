package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/respond"
)

// backendTimeout bounds every outbound call to the backend API so a
// stuck backend cannot hang the browser.
const backendTimeout = 10 * time.Second

// Proxy forwards gateway requests to the backend API.  Every resource
// action goes through the same contract: parse params (400 on garbage),
// resolve session and token (401), forward with the Bearer header and a
// deadline, then relay the backend's enveloped response.
type Proxy struct {
	backend  *url.URL
	identity *Identity
	client   *http.Client
	log      *logrus.Logger
}

// NewProxy builds a Proxy targeting the backend base URL.
func NewProxy(backendURL string, identity *Identity, log *logrus.Logger) (*Proxy, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}
	return &Proxy{
		backend:  u,
		identity: identity,
		client:   &http.Client{Timeout: backendTimeout},
		log:      log,
	}, nil
}

// route describes one proxied action: the backend method and path
// template, whether a session is required, and whether the response is a
// file download rather than a JSON envelope.
type route struct {
	method string
	path   string // template with :name segments, filled from path params
	public bool
	file   bool
}

// handler returns an Echo handler implementing the forward contract for
// one route.
func (p *Proxy) handler(r route) echo.HandlerFunc {
	return func(c echo.Context) error {
		target, ok := p.expand(c, r.path)
		if !ok {
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid path parameter")
		}

		var bearer string
		if !r.public {
			sess := p.identity.Session(c)
			if sess == nil {
				return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "login required")
			}
			token, err := p.identity.AccessToken(c.Request().Context(), sess)
			if err != nil {
				p.log.WithError(err).Warn("access token resolution failed")
				return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "session expired")
			}
			bearer = token
		}
		return p.forward(c, r, target, bearer)
	}
}

// expand fills :name segments of the backend path template from the Echo
// path params.  Numeric ids are validated here so malformed ids never
// reach the backend.
func (p *Proxy) expand(c echo.Context, template string) (string, bool) {
	if !strings.Contains(template, ":") {
		return template, true
	}
	segs := strings.Split(template, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		v := c.Param(seg[1:])
		if v == "" {
			return "", false
		}
		if n, err := strconv.ParseUint(v, 10, 64); err != nil || n == 0 {
			return "", false
		}
		segs[i] = v
	}
	return strings.Join(segs, "/"), true
}

// forward performs the outbound request and relays the response.
func (p *Proxy) forward(c echo.Context, r route, path, bearer string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), backendTimeout)
	defer cancel()

	target := *p.backend
	target.Path = strings.TrimRight(target.Path, "/") + path
	target.RawQuery = c.Request().URL.RawQuery

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), c.Request().Body)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "request build failed")
	}
	if ct := c.Request().Header.Get(echo.HeaderContentType); ct != "" {
		req.Header.Set(echo.HeaderContentType, ct)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	req.Header.Set("X-Forwarded-For", c.RealIP())

	res, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return respond.Fail(c, http.StatusGatewayTimeout, "Gateway Timeout", "backend timed out")
		}
		p.log.WithError(err).Error("backend request failed")
		return respond.Fail(c, http.StatusBadGateway, "Bad Gateway", "backend unavailable")
	}
	defer res.Body.Close()

	if r.file {
		return p.relayFile(c, res)
	}
	return p.relayJSON(c, res)
}

// relayFile streams a download (the PDF bill) through unchanged.
func (p *Proxy) relayFile(c echo.Context, res *http.Response) error {
	if res.StatusCode != http.StatusOK {
		return p.relayJSON(c, res)
	}
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, res.Header.Get(echo.HeaderContentType))
	if cd := res.Header.Get(echo.HeaderContentDisposition); cd != "" {
		h.Set(echo.HeaderContentDisposition, cd)
	}
	c.Response().WriteHeader(http.StatusOK)
	_, err := io.Copy(c.Response(), res.Body)
	return err
}

// relayJSON validates the backend envelope and re-emits it.  A success
// response that is not `{success:true, ...}` is a backend contract
// violation and becomes a 500; error bodies pass through tolerantly with
// the backend's status.
func (p *Proxy) relayJSON(c echo.Context, res *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return respond.Fail(c, http.StatusBadGateway, "Bad Gateway", "backend read failed")
	}
	var env respond.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			// Error from infrastructure between us and the handlers.
			return respond.Fail(c, res.StatusCode, http.StatusText(res.StatusCode), "backend error")
		}
		p.log.WithField("status", res.StatusCode).Error("invalid backend response structure")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "invalid response structure")
	}
	if res.StatusCode < http.StatusBadRequest && !env.Success {
		p.log.WithField("status", res.StatusCode).Error("invalid backend response structure")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "invalid response structure")
	}
	return c.JSONBlob(res.StatusCode, body)
}
