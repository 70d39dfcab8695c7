package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/wordbattle/internal/api"
	"github.com/mcoot/wordbattle/internal/factory"
	"github.com/mcoot/wordbattle/internal/services/auth"
	"github.com/mcoot/wordbattle/internal/testutil"
)

const adminPassword = "e2e-secret"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "wbctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/wbctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cliEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// cliEnv strips WBCTL_* so the developer's environment cannot leak in
func cliEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "WBCTL_") {
			env = append(env, kv)
		}
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	wsURL    string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	// Create application
	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{
		AuthConfig: auth.Config{AdminPassword: adminPassword},
		Logger:     logger,
	})
	require.NoError(t, err)
	app.Start()

	projectRoot := findProjectRoot(t)
	_, err = app.WordService.Seed(context.Background(), filepath.Join(projectRoot, "data/words.txt"))
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		WordService:     app.WordService,
		LobbyController: app.LobbyController,
		RealtimeHub:     app.RealtimeHub,
		EventHub:        app.EventHub,
		PublicURL:       "http://" + addr,
	})

	server := api.NewServer(router, api.DefaultServerConfig(), logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr:  serverURL,
		wsURL: "ws://" + addr + "/ws",
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// openRoom connects a player over the realtime socket and creates a room
func openRoom(t *testing.T, wsURL, name string) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	send := func(event string, data any) {
		require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
	}
	await := func(event string) json.RawMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		for {
			var env struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			require.NoError(t, conn.ReadJSON(&env))
			if env.Event == event {
				return env.Data
			}
		}
	}

	send("request_identity", map[string]string{"savedName": name})
	var playerID string
	require.NoError(t, json.Unmarshal(await("identity_assigned"), &playerID))

	send("create_room", map[string]string{"playerId": playerID})
	var created struct {
		RoomID string `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(await("room_created"), &created))
	return conn, created.RoomID
}

// Response types for JSON parsing
type healthResponse struct {
	Status      string `json:"status"`
	Players     int    `json:"players"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

type wordResponse struct {
	Word  string `json:"word"`
	Image string `json:"image"`
}

type wordsChangedResponse struct {
	Message string         `json:"message"`
	Words   []wordResponse `json:"words"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type stateResponse struct {
	Players map[string]struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"players"`
	Rooms map[string]struct {
		HostID string `json:"hostId"`
	} `json:"rooms"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func wordList(words []wordResponse) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Word
	}
	return out
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Zero(t, resp.Players)
}

func TestCLI_WordLibrary(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Seeded library is public
	output, err := cli.run("words", "list")
	require.NoError(t, err, "output: %s", output)
	var words []wordResponse
	require.NoError(t, json.Unmarshal([]byte(output), &words))
	assert.Contains(t, wordList(words), "elephant")

	// Mutations need an admin session
	output, err = cli.run("words", "add", "zebra")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	output, err = cli.run("login", "--password", adminPassword)
	require.NoError(t, err, "output: %s", output)
	var login loginResponse
	require.NoError(t, json.Unmarshal([]byte(output), &login))
	assert.NotEmpty(t, login.Token)

	// Token is read back from the token file
	output, err = cli.run("words", "add", "  Zebra ")
	require.NoError(t, err, "output: %s", output)
	var added wordsChangedResponse
	require.NoError(t, json.Unmarshal([]byte(output), &added))
	assert.Contains(t, wordList(added.Words), "zebra")

	output, err = cli.run("words", "add", "zebra")
	assert.Error(t, err)
	assert.Contains(t, output, "WORD_EXISTS")

	output, err = cli.run("words", "delete", "zebra")
	require.NoError(t, err, "output: %s", output)
	var deleted wordsChangedResponse
	require.NoError(t, json.Unmarshal([]byte(output), &deleted))
	assert.NotContains(t, wordList(deleted.Words), "zebra")

	// Logout revokes the session
	output, err = cli.run("logout")
	require.NoError(t, err, "output: %s", output)
	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Logged out", msg.Message)

	_, err = cli.run("words", "add", "zebra")
	assert.Error(t, err)
}

func TestCLI_LoginRejectsWrongPassword(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("login", "--password", "nope")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")
}

func TestCLI_StateAndQR(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	conn, roomID := openRoom(t, ts.wsURL, "Alice")
	defer func() { _ = conn.Close() }()

	output, err := cli.run("state")
	require.NoError(t, err, "output: %s", output)
	var state stateResponse
	require.NoError(t, json.Unmarshal([]byte(output), &state))
	require.Contains(t, state.Rooms, roomID)
	host := state.Rooms[roomID].HostID
	assert.Equal(t, "Alice", state.Players[host].Name)
	assert.Equal(t, "in_room", state.Players[host].Status)

	file := filepath.Join(t.TempDir(), "invite.png")
	output, err = cli.run("qr", roomID, "-f", file)
	require.NoError(t, err, "output: %s", output)

	png, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// QR for a room that does not exist
	output, err := cli.run("qr", "room_missing", "-f", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Deleting an unknown word is still gated first
	output, err = cli.run("words", "delete", "nothing")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")
}
