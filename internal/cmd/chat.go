package cmd

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/tui"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

func newChatCmd(rt *runtime) *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the PsiChat assistant",
		Long: `Talk to the PsiChat assistant and exchange direct messages.

Subcommands:
  send         Send one message and print the reply
  history      Show stored messages
  direct       Show the direct conversation with a participant
  direct-send  Send a direct message
  tui          Open the interactive chat screen

Examples:
  psichat chat send "Hoy me siento un poco ansioso"
  psichat chat history -o json
  psichat chat tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	chatCmd.AddCommand(
		newChatSendCmd(rt),
		newChatHistoryCmd(rt),
		newChatDirectCmd(rt),
		newChatDirectSendCmd(rt),
		newChatTUICmd(rt),
	)
	return chatCmd
}

func newChatSendCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/chat")
			if err != nil {
				return err
			}
			resp, err := a.SendMessage(cmd.Context(), strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			return cc.Print(cmd, replyOutput(*resp))
		},
	}
}

func newChatHistoryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show stored messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/chat")
			if err != nil {
				return err
			}
			msgs, err := a.Services.Chat.History(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, historyOutput(msgs))
		},
	}
}

// directPath is the page that shows a direct conversation for the caller's role.
func directPath(a *app.App, participantID string) string {
	if a.Session.State().Role() == platform.RoleTutor {
		return "/tutor/chat/" + participantID
	}
	return "/chat-directo/" + participantID
}

func newChatDirectCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "direct <participant-id>",
		Short: "Show the direct conversation with a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := rt.load(cmd)
			if err != nil {
				return err
			}
			a, cc, err := rt.guard(cmd, directPath(a, args[0]))
			if err != nil {
				return err
			}
			msgs, err := a.Services.Chat.DirectHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cc.Print(cmd, directOutput(msgs))
		},
	}
}

func newChatDirectSendCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "direct-send <participant-id> <message>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			receiver, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid participant id %q: must be a number", args[0])
			}

			a, _, err := rt.load(cmd)
			if err != nil {
				return err
			}
			a, cc, err := rt.guard(cmd, directPath(a, args[0]))
			if err != nil {
				return err
			}

			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if err := validation.Message(text); err != nil {
				return err
			}

			sent, err := a.Services.Chat.SendDirect(cmd.Context(), platform.DirectMessage{
				Content:    validation.Sanitize(text),
				SenderID:   a.Session.State().User.ID,
				ReceiverID: receiver,
			})
			if err != nil {
				return err
			}
			return cc.Print(cmd, directOutput{*sent})
		},
	}
}

func newChatTUICmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive chat screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := rt.guard(cmd, "/chat")
			if err != nil {
				return err
			}

			// The screen renders toasts itself.
			rt.mute()
			events, unsubscribe := tui.Subscribe(a.Notifications)
			defer unsubscribe()

			user := a.Session.State().User.DisplayName()
			model := tui.NewModel(cmd.Context(), a, user, events)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("chat screen failed: %w", err)
			}
			return nil
		},
	}
}
