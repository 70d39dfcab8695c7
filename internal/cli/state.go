package cli

import (
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show connected players and rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StateResult

			if err := client.Get("/api/v1/state", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
