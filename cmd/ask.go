package cmd

import (
	"strings"

	"chat-widget/internal/backend"
	"chat-widget/internal/content"
	"chat-widget/internal/session"
	"chat-widget/internal/terminal"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	var thread, format string
	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Send one message and print the reply",
		Long:  "Send one message and print the reply. With no text, or \"-\", the message is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := terminal.ParseFormat(format)
			if err != nil {
				return err
			}
			e, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			text := strings.Join(args, " ")
			if text == "" || text == "-" {
				text, err = terminal.ReadInput(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(text) == "" {
				return session.ErrBlankInput
			}

			display := terminal.NewDisplay(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.GlamourStyle)
			display.SetFormat(outFormat)
			req := backend.QueryRequest{
				Text:   text,
				UserID: e.ids.GetOrCreate(cmd.Context()).String(),
			}
			if thread != "" {
				req.ThreadID = &thread
			}

			display.ShowSpinner("Thinking...")
			reply, err := e.client.Query(cmd.Context(), req)
			display.StopSpinner()
			if err != nil {
				log.Debug().Err(err).Msg("ask failed")
				return errors.New(session.ErrorText(err))
			}

			if reply.Content.IsEmpty() {
				reply.Content = content.Text(session.NoResponseText)
			}
			display.PrintReply(reply.Content)
			if reply.ThreadID != "" {
				display.PrintInfo("Continue this conversation with --thread " + reply.ThreadID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&thread, "thread", "", "continue an existing backend thread")
	cmd.Flags().StringVar(&format, "format", string(terminal.FormatAuto), "reply format: auto, terminal, markdown or html")
	return cmd
}
