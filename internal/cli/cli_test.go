package cli

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	stream := strings.Join([]string{
		"event: connected",
		"data: {}",
		"",
		": keepalive",
		"",
		"event: players_update",
		"data: {\"a\":",
		"data: 1}",
		"",
		"event: image_downloaded",
		"data:{\"word\":\"apple\"}",
		"",
	}, "\n")

	type got struct{ name, data string }
	var events []got
	err := readEvents(strings.NewReader(stream), func(name, data string) {
		events = append(events, got{name, data})
	})
	require.NoError(t, err)

	assert.Equal(t, []got{
		{"connected", "{}"},
		{"players_update", "{\"a\":\n1}"},
		{"image_downloaded", "{\"word\":\"apple\"}"},
	}, events)
}

func TestPrintEventTruncatesText(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	printEvent(&buf, StreamEvent{Time: at, Event: "game_state_update", Data: strings.Repeat("x", 150)}, false)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[2024-01-01 12:00:00] game_state_update: "))
	assert.True(t, strings.HasSuffix(line, strings.Repeat("x", maxEventPreview)+"...\n"))

	buf.Reset()
	printEvent(&buf, StreamEvent{Time: at, Event: "players_update", Data: "{}"}, true)
	assert.Contains(t, buf.String(), `"event":"players_update"`)
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Path == "/plain" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = fmt.Fprint(w, `{"error":{"code":"WORD_EXISTS","message":"Word already exists"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")

	err := c.Post("/words", map[string]string{"word": "apple"}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "WORD_EXISTS", apiErr.Code)
	assert.Equal(t, "Word already exists (WORD_EXISTS)", err.Error())

	err = c.Get("/plain", nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP 502: boom", err.Error())
}

func TestConfigTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)

	require.NoError(t, c.SaveToken("secret"))
	c.Token = ""
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "secret", c.Token)

	require.NoError(t, c.ClearToken())
	require.NoError(t, c.ClearToken())
	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)
}

func TestDefaultConfigReadsEnvironment(t *testing.T) {
	t.Setenv("WBCTL_SERVER", "http://example.test:9000")
	t.Setenv("WBCTL_OUTPUT", "json")
	t.Setenv("WBCTL_TOKEN_FILE", "/tmp/wbctl-token")
	t.Setenv("WBCTL_TOKEN", "")

	c := DefaultConfig()
	assert.Equal(t, "http://example.test:9000", c.ServerURL)
	assert.Equal(t, "json", c.Output)
	assert.Equal(t, "/tmp/wbctl-token", c.TokenFile)
	assert.Empty(t, c.Token)
}
