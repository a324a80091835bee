package sockbridge

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHtmlFile_CallbackRequired(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/echo/server/abc123/htmlfile")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, `"callback" parameter required`, string(body))

	resp, err = http.Get(server.URL + `/echo/server/abc123/htmlfile?c=bad%20callback`)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, `invalid "callback" parameter`, string(body))
}

func TestHtmlFile_PreludeAndOpenFrame(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/echo/server/abc123/htmlfile?c=parent.cb")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/html; charset=UTF-8", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	received := readUntil(t, reader, `p("o");`)
	assert.Contains(t, received, "var c = parent.parent.cb;")
	assert.GreaterOrEqual(t, strings.Index(received, "<script>\np("), 1024,
		"IE needs at least 1kB of prelude before scripts run")
}

func TestHtmlFile_MessageEnvelope(t *testing.T) {
	h := newTestHandler(t, echoHandlerFunc)
	server := httptest.NewServer(h)
	defer server.Close()
	base := server.URL + "/echo/server/abc123"

	resp, err := http.Get(base + "/htmlfile?c=cb")
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)
	readUntil(t, reader, `p("o");`)
	readUntil(t, reader, "</script>\r\n")

	post, err := http.Post(base+"/xhr_send", "application/json", strings.NewReader(`["htmlfile message"]`))
	require.NoError(t, err)
	post.Body.Close()

	received := readUntil(t, reader, "</script>\r\n")
	assert.Contains(t, received, "<script>\np(\"a[\\\"htmlfile message\\\"]\");\n</script>\r\n")
}

// readUntil accumulates response lines until marker shows up; streaming
// transports hold the connection open so plain ReadAll would block forever.
func readUntil(t *testing.T, reader *bufio.Reader, marker string) string {
	t.Helper()
	var received strings.Builder
	for !strings.Contains(received.String(), marker) {
		line, err := reader.ReadString('\n')
		received.WriteString(line)
		if err != nil {
			t.Fatalf("Stream ended before %q: %v (got %q)", marker, err, received.String())
		}
	}
	return received.String()
}
