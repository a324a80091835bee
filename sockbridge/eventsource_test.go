package sockbridge

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSource_OpenFrame(t *testing.T) {
	h := newTestHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/echo/server/abc123/eventsource")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream; charset=UTF-8", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	prologue, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\r\n", prologue)

	frame, err := readEventSourceFrame(reader)
	require.NoError(t, err)
	assert.Equal(t, "o", frame)
}

func TestEventSource_MessageEnvelope(t *testing.T) {
	h := newTestHandler(t, echoHandlerFunc)
	server := httptest.NewServer(h)
	defer server.Close()
	base := server.URL + "/echo/server/abc123"

	resp, err := http.Get(base + "/eventsource")
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)
	_, _ = reader.ReadString('\n') // prologue
	frame, err := readEventSourceFrame(reader)
	require.NoError(t, err)
	require.Equal(t, "o", frame)

	post, err := http.Post(base+"/xhr_send", "application/json", strings.NewReader(`["es message"]`))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusNoContent, post.StatusCode)

	frame, err = readEventSourceFrame(reader)
	require.NoError(t, err)
	assert.Equal(t, `a["es message"]`, frame)
}

// readEventSourceFrame consumes one data: <frame>\r\n\r\n event.
func readEventSourceFrame(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	if _, err := reader.ReadString('\n'); err != nil { // blank separator
		return "", err
	}
	line = strings.TrimSuffix(line, "\r\n")
	return strings.TrimPrefix(line, "data: "), nil
}
