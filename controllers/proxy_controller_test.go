package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jmdec/ipponyari-sub001/upstream"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func newProxyApp(originURL string, res Resource, timeout time.Duration) (*gin.Engine, *ProxyController) {
	client := upstream.NewClient(originURL, timeout)
	pc := NewProxyController(client, res)
	r := gin.New()
	pc.Register(r.Group(strings.TrimPrefix(res.Path, "/api")))
	return r, pc
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProxyPropagatesUpstreamStatus(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad input"}`))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/orders", Methods: []string{http.MethodPost}}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "bad input", body["error"])
}

func TestProxyUnreachableMapsTo503(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service unavailable", decodeEnvelope(t, rec)["error"])
}

func TestProxyMalformedUpstreamMapsTo502(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "bad upstream response", decodeEnvelope(t, rec)["error"])
}

func TestProxyTimeoutMapsTo504(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}}, 50*time.Millisecond)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "upstream timed out", decodeEnvelope(t, rec)["error"])
}

func TestBearerGateRejectsBeforeForwarding(t *testing.T) {
	var hits int
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/addresses", Methods: []string{http.MethodGet}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/addresses", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, hits, "no upstream call may be wasted on an unauthorized request")
}

func TestSuccessBodyForwardedUnchanged(t *testing.T) {
	const payload = `{"id":7,"name":"Gyoza","price":8.99}`
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(payload))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, payload, rec.Body.String())
}

func TestCreatedStatusPassesThrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/reservations", Methods: []string{http.MethodPost}, Public: []string{http.MethodPost}}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"name":"Aki","guests":4}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())
}

func TestListFlattensPaginationEnvelope(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1},{"id":2}],"pagination":{"page":1,"total":2}}`))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}, FlattenList: true}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.JSONEq(t, `[{"id":1},{"id":2}]`, rec.Body.String())
}

func TestQueryParamsPassThroughVerbatim(t *testing.T) {
	var gotQuery string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodGet}, Public: []string{http.MethodGet}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?category=mains&sort=price&page=2", nil))

	assert.Equal(t, "category=mains&sort=price&page=2", gotQuery)
}

func TestMutationRequiresBody(t *testing.T) {
	var hits int
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/orders", Methods: []string{http.MethodPost}, Public: []string{http.MethodPost}}, time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, hits)
}

func TestAfterCreateFiresOnSuccessOnly(t *testing.T) {
	var status int
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"id":1}`))
	}))
	defer origin.Close()

	r, pc := newProxyApp(origin.URL, Resource{Path: "/api/reservations", Methods: []string{http.MethodPost}, Public: []string{http.MethodPost}}, time.Second)
	var fired int
	pc.AfterCreate = func(c *gin.Context, status int, body json.RawMessage) { fired++ }

	status = http.StatusCreated
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"guests":2}`)))
	assert.Equal(t, 1, fired)

	status = http.StatusBadRequest
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"guests":2}`)))
	assert.Equal(t, 1, fired, "failed creates must not trigger side effects")

	status = http.StatusFound // a redirecting origin did not create anything
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"guests":2}`)))
	assert.Equal(t, 1, fired, "redirects must not trigger side effects")
}

func TestMultipartStreamsThroughUntouched(t *testing.T) {
	const boundary = "testboundary42"
	raw := "--" + boundary + "\r\n" +
		"Content-Disposition: form-data; name=\"name\"\r\n\r\nGyoza\r\n" +
		"--" + boundary + "--\r\n"

	var gotBody, gotCT string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer origin.Close()

	r, _ := newProxyApp(origin.URL, Resource{Path: "/api/products", Methods: []string{http.MethodPost}, Public: []string{http.MethodPost}, BodyKind: BodyForm}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(raw))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, raw, gotBody, "multipart payload must not be re-encoded")
	assert.Contains(t, gotCT, boundary)
}
