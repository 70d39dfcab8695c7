package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Word library commands",
	}

	cmd.AddCommand(newWordsListCmd())
	cmd.AddCommand(newWordsAddCmd())
	cmd.AddCommand(newWordsDeleteCmd())

	return cmd
}

func newWordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the word library",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Word

			if err := client.Get("/api/v1/words", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWordsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <word>",
		Short: "Add a word to the library (admin)",
		Long: `Add a word to the library. Requires an admin session (see "wbctl login").

The server looks up an image for the word in the background; watch for
image_downloaded with "wbctl events".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"word": args[0]}
			var result WordsChanged

			if err := client.Post("/api/v1/words", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <word>",
		Short: "Delete a word from the library (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result WordsChanged

			if err := client.Delete("/api/v1/words/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
