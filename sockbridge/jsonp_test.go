package sockbridge

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonp_CallbackRequired(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/echo/server/abc123/jsonp")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, `"callback" parameter required`, string(body))
}

func TestJsonp_OpenFrame(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/echo/server/abc123/jsonp?c=callback")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript; charset=UTF-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "/**/callback(\"o\");\r\n", string(body))
}

func TestJsonp_SendFormEncoded(t *testing.T) {
	h := newTestHandler(t, echoHandlerFunc)
	server := httptest.NewServer(h)
	defer server.Close()
	base := server.URL + "/echo/server/abc123"

	resp, err := http.Get(base + "/jsonp?c=cb")
	require.NoError(t, err)
	resp.Body.Close()

	form := url.Values{"d": {`["jsonp message"]`}}
	resp, err = http.Post(base+"/jsonp_send", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(base + "/jsonp?c=cb")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "/**/cb(\"a[\\\"jsonp message\\\"]\");\r\n", string(body))
}

func TestJsonp_SendRawBody(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()
	base := server.URL + "/echo/server/abc123"

	resp, err := http.Get(base + "/jsonp?c=cb")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Post(base+"/jsonp_send", "application/json", strings.NewReader(`["raw"]`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	sess, err := h.sessions.get("abc123")
	require.NoError(t, err)
	msg, err := sess.Recv()
	require.NoError(t, err)
	assert.Equal(t, "raw", msg)
}

func TestJsonp_SendBadPayloads(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()
	base := server.URL + "/echo/server/abc123"

	resp, err := http.Get(base + "/jsonp?c=cb")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Post(base+"/jsonp_send", "application/x-www-form-urlencoded", strings.NewReader("d="))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Payload expected.", string(body))

	resp, err = http.Post(base+"/jsonp_send", "application/json", strings.NewReader(`["broken`))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Broken JSON encoding.", string(body))
}

func TestJsonp_SendUnknownSession(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Post(server.URL+"/echo/server/nosuch/jsonp_send", "application/json", strings.NewReader(`["a"]`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
