package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_StripsPrefix(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/fundlimit", r.URL.Path)
		assert.Equal(t, "segment=NSE_FNO", r.URL.RawQuery)
		assert.Equal(t, "front-end-token", r.Header.Get("access-token"))
		assert.NotEmpty(t, r.Header.Get("X-Forwarded-For"))

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"availabelBalance":1000}`))
	}))
	defer backend.Close()

	s := newTestServer(t, &testDeps{proxyTarget: backend.URL})
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	req, err := http.NewRequest(http.MethodGet, front.URL+"/api/v2/fundlimit?segment=NSE_FNO", nil)
	require.NoError(t, err)
	req.Header.Set("access-token", "front-end-token")
	req.Header.Set("Origin", testOrigin)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"availabelBalance":1000}`, string(body))
	assert.Equal(t, []string{testOrigin}, resp.Header.Values("Access-Control-Allow-Origin"))
}

func TestProxy_HostHeaderIsTarget(t *testing.T) {
	var gotHost string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	s := newTestServer(t, &testDeps{proxyTarget: backend.URL})
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	resp, err := http.Post(front.URL+"/api/orders", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, strings.TrimPrefix(backend.URL, "http://"), gotHost)
}

func TestProxy_FlattradeRoutesTakePrecedence(t *testing.T) {
	backendHit := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendHit = true
	}))
	defer backend.Close()

	tokens := &fakeTokens{resp: json.RawMessage(`{"stat":"Ok"}`)}
	s := newTestServer(t, &testDeps{proxyTarget: backend.URL, tokens: tokens})

	rec := do(t, s, http.MethodPost, "/api/trade/apitoken", `{"api_key":"k"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, backendHit)
	assert.NotNil(t, tokens.forwarded)
}

func TestProxy_UpstreamUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := backend.URL
	backend.Close()

	s := newTestServer(t, &testDeps{proxyTarget: target})

	rec := do(t, s, http.MethodGet, "/api/holdings", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Error in proxying request","kind":"UpstreamError"}`, rec.Body.String())
}
