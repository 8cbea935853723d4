package cmd

import (
	"chat-widget/internal/terminal"

	"github.com/spf13/cobra"
)

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity sent with every message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			id := e.ids.GetOrCreate(cmd.Context())
			terminal.NewDisplay(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.GlamourStyle).Println(id.String())
			return nil
		},
	}
}
