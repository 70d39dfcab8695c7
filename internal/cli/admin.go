package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start an admin session and save its token",
		Long: `Log in with the admin password. The session token is saved to the token
file and used by later commands. The password is read from --password,
WBCTL_ADMIN_PASSWORD, or the first line of stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("WBCTL_ADMIN_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("no password given")
				}
				password = strings.TrimSpace(line)
			}

			req := map[string]string{"password": password}
			var result LoginResult

			if err := client.Post("/api/v1/admin/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Admin password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session and forget its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			// An expired session still clears the local token
			var logoutErr error
			if cfg.Token != "" {
				logoutErr = client.Post("/api/v1/admin/logout", nil, nil)
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			if logoutErr != nil {
				return logoutErr
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}
