package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/cmis"
	cmislogin "github.com/dropDatabas3/clouddrive/internal/cmis/login"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/connect"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/drive"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/health"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/login"
	"github.com/dropDatabas3/clouddrive/internal/http/dto"
	mw "github.com/dropDatabas3/clouddrive/internal/http/middlewares"
	"github.com/dropDatabas3/clouddrive/internal/metrics"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/rate"
	"github.com/dropDatabas3/clouddrive/internal/security/state"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newLimitedRouter(t, nil)
}

func newLimitedRouter(t *testing.T, limit mw.Middleware) http.Handler {
	t.Helper()
	codes := cmislogin.New(cmislogin.Options{})
	signer, err := state.NewSigner("test-secret", time.Minute)
	require.NoError(t, err)

	conn, err := cmis.NewConnector(cmis.Options{
		Params: clouddrive.ConnectorParams{
			Schema:       "http",
			Host:         "portal.test",
			ProviderID:   "cmis",
			ProviderName: "CMIS",
			Predefined:   []clouddrive.PredefinedService{{Name: "Nuxeo", URL: "http://nuxeo/atom"}},
		},
		Authenticator: codes,
		States:        signer,
	})
	require.NoError(t, err)

	reg := clouddrive.NewRegistry()
	reg.Register(conn)
	svc := clouddrive.NewService(clouddrive.ServiceDeps{Registry: reg, Nodes: nodes.NewMemory()})

	promReg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(promReg))

	return New(Deps{
		Login:     login.NewController(svc, codes),
		Connect:   connect.NewController(connect.Deps{Drives: svc, Contexts: codes, States: signer}),
		Drive:     drive.NewController(svc),
		Health:    health.NewController("test", nil),
		Metrics:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		RateLimit: limit,
	})
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func withUser(req *http.Request) *http.Request {
	req.Header.Set("X-Local-User", "root")
	return req
}

func TestRouter_FullConnectFlow(t *testing.T) {
	h := newTestRouter(t)

	// proveedores y auth URL con state firmado
	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/portal/rest/clouddrive/providers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var providers []dto.ProviderInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &providers))
	require.Len(t, providers, 1)
	authURL, err := url.Parse(providers[0].AuthURL)
	require.NoError(t, err)
	require.Equal(t, "/portal/clouddrive/cmis/login", authURL.Path)
	st := authURL.Query().Get("state")
	require.NotEqual(t, cmis.NoState, st)

	// formulario
	rr = do(t, h, httptest.NewRequest(http.MethodGet, authURL.RequestURI(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	var form dto.LoginForm
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &form))
	require.Equal(t, "http://portal.test/portal/rest/clouddrive/connect/cmis", form.RedirectURI)
	require.Len(t, form.Predefined, 1)

	// login
	body := url.Values{"user": {"john"}, "password": {"secret"}, "service_url": {"http://cmis/atom"}, "state": {st}}
	req := httptest.NewRequest(http.MethodPost, "/portal/clouddrive/cmis/login", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = do(t, h, req)
	require.Equal(t, http.StatusFound, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/portal/rest/clouddrive/connect/cmis", loc.Path)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	require.Equal(t, st, loc.Query().Get("state"))

	// primer paso: pendiente
	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, loc.RequestURI(), nil)))
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var pending dto.PendingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pending))
	require.Equal(t, "pending", pending.Status)
	require.Equal(t, "john", pending.User)

	// repositorio
	ctxBody, _ := json.Marshal(dto.ContextRequest{Code: code, Repository: "repo-1"})
	req = httptest.NewRequest(http.MethodPost, pending.ContextURL, bytes.NewReader(ctxBody))
	req.Header.Set("Content-Type", "application/json")
	rr = do(t, h, req)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	// segundo paso: drive creado
	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, loc.RequestURI(), nil)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created dto.Drive
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "/Users/root/CMIS john", created.Path)
	require.Equal(t, "repo-1", created.ID)
	require.True(t, created.Connected)

	drivePath := "/portal/rest/clouddrive/drive?path=" + url.QueryEscape(created.Path)
	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, drivePath, nil)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, "/portal/rest/clouddrive/drives", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []dto.Drive
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// otro usuario local no ve ni borra el drive
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req = httptest.NewRequest(method, drivePath, nil)
		req.Header.Set("X-Local-User", "bob")
		rr = do(t, h, req)
		require.Equal(t, http.StatusForbidden, rr.Code, rr.Body.String())
	}

	rr = do(t, h, withUser(httptest.NewRequest(http.MethodDelete, drivePath, nil)))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, drivePath, nil)))
	require.Equal(t, http.StatusGone, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "clouddrive_code_exchanges_total")
}

func TestRouter_Errors(t *testing.T) {
	h := newTestRouter(t)

	// sin usuario local
	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/portal/rest/clouddrive/connect/cmis?code=x", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// state inválido
	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, "/portal/rest/clouddrive/connect/cmis?code=x&state="+cmis.NoState, nil)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "INVALID_STATE")

	// proveedor desconocido
	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/portal/clouddrive/dropbox/login", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	// redirect_uri ajeno
	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/portal/clouddrive/cmis/login?redirect_uri=http%3A%2F%2Fevil", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// login incompleto
	req := httptest.NewRequest(http.MethodPost, "/portal/clouddrive/cmis/login", strings.NewReader("user=john"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = do(t, h, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "MISSING_FIELDS")

	// contexto para un código desconocido
	req = httptest.NewRequest(http.MethodPost, "/portal/rest/clouddrive/connect/cmis/context", strings.NewReader(`{"code":"nope","repository":"r"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = do(t, h, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "INVALID_CODE")

	// drive inexistente
	rr = do(t, h, withUser(httptest.NewRequest(http.MethodGet, "/portal/rest/clouddrive/drive?path=/nope", nil)))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RateLimitedLogin(t *testing.T) {
	h := newLimitedRouter(t, mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: rate.NewMemoryLimiter(1, time.Minute),
	}))

	// el formulario GET no cuenta
	for i := 0; i < 3; i++ {
		rr := do(t, h, httptest.NewRequest(http.MethodGet, "/portal/clouddrive/cmis/login", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/portal/clouddrive/cmis/login", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		return do(t, h, req)
	}
	require.NotEqual(t, http.StatusTooManyRequests, post().Code)
	require.Equal(t, http.StatusTooManyRequests, post().Code)
}
