package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

func newTutorCmd(rt *runtime) *cobra.Command {
	tutorCmd := &cobra.Command{
		Use:   "tutor",
		Short: "Follow up on students (tutors only)",
		Long: `Follow up on students. Every subcommand requires a tutor account.

Subcommands:
  dashboard      Show the aggregated dashboard
  alerts         List pending alerts
  review         Mark an alert as reviewed
  intervene      Send a message to a student
  conversation   Show a student's conversation with the assistant
  notifications  Manage tutor notifications

Examples:
  psichat tutor alerts
  psichat tutor review a-17 --notes "called the student"
  psichat tutor notifications read-all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	tutorCmd.AddCommand(
		newTutorDashboardCmd(rt),
		newTutorAlertsCmd(rt),
		newTutorReviewCmd(rt),
		newTutorInterveneCmd(rt),
		newTutorConversationCmd(rt),
		newTutorNotificationsCmd(rt),
	)
	return tutorCmd
}

func newTutorDashboardCmd(rt *runtime) *cobra.Command {
	c := documentCmd(rt, "dashboard", "Show the aggregated dashboard", cobra.NoArgs, fixedPath("/tutor"),
		func(cmd *cobra.Command, a *app.App, _ []string) (platform.Document, error) {
			q := platform.DashboardQuery{}
			q.TimeRange, _ = cmd.Flags().GetString("range")
			q.StudentID, _ = cmd.Flags().GetString("student")
			return a.Services.Tutor.Dashboard(cmd.Context(), q)
		})
	c.Flags().String("range", "", "time range such as 7d or 30d")
	c.Flags().String("student", "", "restrict to one student id")
	return c
}

func newTutorAlertsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List pending alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}
			alerts, err := a.Services.Tutor.Alerts(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, alertsOutput(alerts))
		},
	}
}

func newTutorReviewCmd(rt *runtime) *cobra.Command {
	c := &cobra.Command{
		Use:   "review <alert-id>",
		Short: "Mark an alert as reviewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}

			req := platform.ReviewRequest{}
			if cmd.Flags().Changed("notes") {
				notes, _ := cmd.Flags().GetString("notes")
				req.Notes = &notes
			}
			if cmd.Flags().Changed("action") {
				action, _ := cmd.Flags().GetString("action")
				req.ActionTaken = &action
			}

			doc, err := a.Services.Tutor.ReviewAlert(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			a.Notifications.Success(fmt.Sprintf("Alert %s reviewed", args[0]))
			return cc.Print(cmd, documentOutput(doc))
		},
	}
	c.Flags().String("notes", "", "review notes")
	c.Flags().String("action", "", "action taken")
	return c
}

func newTutorInterveneCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "intervene <student-id> <message>",
		Short: "Send a message to a student",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid student id %q: must be a number", args[0])
			}

			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}

			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if err := validation.Message(text); err != nil {
				return err
			}

			doc, err := a.Services.Tutor.Intervene(cmd.Context(), platform.InterventionRequest{
				StudentID: studentID,
				Message:   validation.Sanitize(text),
			})
			if err != nil {
				return err
			}
			return cc.Print(cmd, documentOutput(doc))
		},
	}
}

func newTutorConversationCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "conversation <student-id>",
		Short: "Show a student's conversation with the assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor/chat/"+args[0])
			if err != nil {
				return err
			}
			conv, err := a.Services.Tutor.StudentConversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cc.Print(cmd, conversationOutput(*conv))
		},
	}
}

func newTutorNotificationsCmd(rt *runtime) *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Manage tutor notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}
			items, err := a.Services.Notifications.List(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, tutorNotificationsOutput(items))
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}
			if err := a.Services.Notifications.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			return cc.Print(cmd, messageOutput{Message: fmt.Sprintf("Notification %s marked read", args[0])})
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}
			if err := a.Services.Notifications.MarkAllRead(cmd.Context()); err != nil {
				return err
			}
			return cc.Print(cmd, messageOutput{Message: "All notifications marked read"})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			a, cc, err := rt.guard(cmd, "/tutor")
			if err != nil {
				return err
			}
			if !yes {
				ok, err := rt.prompter.Confirm(fmt.Sprintf("Delete notification %s?", args[0]), false)
				if err != nil {
					return err
				}
				if !ok {
					return cc.Print(cmd, messageOutput{Message: "Cancelled"})
				}
			}
			if err := a.Services.Notifications.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return cc.Print(cmd, messageOutput{Message: fmt.Sprintf("Notification %s deleted", args[0])})
		},
	}
	del.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	notificationsCmd.AddCommand(list, read, readAll, del)
	return notificationsCmd
}
