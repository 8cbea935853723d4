package cmd

import (
	"chat-widget/internal/terminal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the server-side chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			id := e.ids.GetOrCreate(cmd.Context())
			if err := e.client.ClearHistory(cmd.Context(), id.String()); err != nil {
				return errors.Wrap(err, "failed to clear history")
			}
			terminal.NewDisplay(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.GlamourStyle).
				PrintSuccess("Chat history cleared for " + id.String())
			return nil
		},
	}
}
