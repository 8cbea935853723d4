package cmd

import (
	"chat-widget/internal/session"
	"chat-widget/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat widget (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, open)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "start with the chat panel open")
	return cmd
}

func runChat(cmd *cobra.Command, opts *rootOptions, open bool) error {
	e, err := opts.setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	sess := session.New(e.client, e.ids, session.Options{
		TypingInterval:     e.cfg.TypingInterval,
		ResetThreadOnClear: e.cfg.ResetThreadOnClear,
	})
	defer sess.Close()

	model := ui.NewModel(sess, ui.Options{
		GlamourStyle: e.cfg.GlamourStyle,
		StartOpen:    open || e.cfg.StartOpen,
	})

	log.Info().Str("user_id", e.ids.GetOrCreate(cmd.Context()).String()).Msg("starting chat widget")
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "chat widget failed")
	}
	return nil
}
