package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <roomId>",
		Short: "Download a room's invite QR code as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]

			png, contentType, err := client.GetRaw("/api/v1/rooms/" + url.PathEscape(roomID) + "/qr")
			if err != nil {
				return err
			}
			if contentType != "image/png" {
				return fmt.Errorf("unexpected content type %q", contentType)
			}

			if file == "" {
				file = roomID + ".png"
			}
			if err := os.WriteFile(file, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Saved invite QR for %s to %s", roomID, file))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default <roomId>.png)")

	return cmd
}
