package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Report server status with player, room and connection counts.

With --wait the command retries until the server answers or the duration
elapses, which is handy right after starting the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := pollHealth(wait)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")

	return cmd
}

func pollHealth(wait time.Duration) (HealthResult, error) {
	deadline := time.Now().Add(wait)
	for {
		var result HealthResult
		err := client.Get("/api/v1/health", &result)
		if err == nil {
			return result, nil
		}
		if time.Now().Add(healthPollInterval).After(deadline) {
			if wait > 0 {
				return result, fmt.Errorf("server not healthy after %s: %w", wait, err)
			}
			return result, err
		}
		time.Sleep(healthPollInterval)
	}
}
