package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const maxEventPreview = 100

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		only       []string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream broadcast events",
		Long: `Connect to the server's event stream and print every broadcast event.

Events include:
  - game_state_update: full players and rooms snapshot
  - players_update: players changed (identity, name)
  - image_downloaded: background image lookup finished for a word

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, jsonOutput, only)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Only stream these event names")

	return cmd
}

// StreamEvent is one event read from the stream
type StreamEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, jsonOutput bool, only []string) error {
	query := url.Values{"event": only}
	endpoint := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The stream stays open until the context ends
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if !jsonOutput {
		fmt.Printf("Connected to %s\n", cfg.ServerURL)
	}

	err = readEvents(resp.Body, func(name, data string) {
		if name == "connected" {
			return
		}
		printEvent(os.Stdout, StreamEvent{Time: time.Now(), Event: name, Data: data}, jsonOutput)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

// readEvents parses an event stream, calling fn for each complete event.
// Comment lines are skipped; multi-line data is joined with newlines.
func readEvents(r io.Reader, fn func(name, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name != "" {
				fn(name, strings.Join(data, "\n"))
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printEvent(w io.Writer, evt StreamEvent, jsonOutput bool) {
	if jsonOutput {
		line, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(line))
		return
	}

	preview := strings.ReplaceAll(evt.Data, "\n", " ")
	if len(preview) > maxEventPreview {
		preview = preview[:maxEventPreview] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", evt.Time.Format(time.DateTime), evt.Event, preview)
}
