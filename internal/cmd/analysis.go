package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/platform"
)

func newAnalysisCmd(rt *runtime) *cobra.Command {
	analysisCmd := &cobra.Command{
		Use:   "analysis",
		Short: "Inspect emotional analyses",
		Long: `Inspect the emotional analyses computed from chat messages.

Subcommands:
  last     Show the most recent analysis
  student  Show a student's most recent analysis (tutors only)
  deep     Show the aggregated analysis over a time range
  export   Export a report over a time range
  history  List past analyses

Examples:
  psichat analysis last
  psichat analysis deep --range 30d -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	analysisCmd.AddCommand(
		newAnalysisLastCmd(rt),
		newAnalysisStudentCmd(rt),
		newAnalysisDeepCmd(rt),
		newAnalysisExportCmd(rt),
		newAnalysisHistoryCmd(rt),
	)
	return analysisCmd
}

// documentCmd builds a command that guards path and prints one document.
func documentCmd(rt *runtime, use, short string, args cobra.PositionalArgs, path func([]string) string,
	fetch func(cmd *cobra.Command, a *app.App, args []string) (platform.Document, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, path(args))
			if err != nil {
				return err
			}
			doc, err := fetch(cmd, a, args)
			if err != nil {
				return err
			}
			a.Logger.Analysis("analysis fetched", "command", cmd.Name())
			return cc.Print(cmd, documentOutput(doc))
		},
	}
}

func fixedPath(p string) func([]string) string {
	return func([]string) string { return p }
}

func newAnalysisLastCmd(rt *runtime) *cobra.Command {
	return documentCmd(rt, "last", "Show the most recent analysis", cobra.NoArgs, fixedPath("/analisis"),
		func(cmd *cobra.Command, a *app.App, _ []string) (platform.Document, error) {
			return a.Services.Analysis.Last(cmd.Context())
		})
}

func newAnalysisStudentCmd(rt *runtime) *cobra.Command {
	return documentCmd(rt, "student <student-id>", "Show a student's most recent analysis", cobra.ExactArgs(1), fixedPath("/tutor/panel"),
		func(cmd *cobra.Command, a *app.App, args []string) (platform.Document, error) {
			return a.Services.Analysis.LastForStudent(cmd.Context(), args[0])
		})
}

func newAnalysisDeepCmd(rt *runtime) *cobra.Command {
	c := documentCmd(rt, "deep", "Show the aggregated analysis over a time range", cobra.NoArgs, fixedPath("/analisis-profundo"),
		func(cmd *cobra.Command, a *app.App, _ []string) (platform.Document, error) {
			r, _ := cmd.Flags().GetString("range")
			return a.Services.Analysis.Deep(cmd.Context(), r)
		})
	c.Flags().String("range", "7d", "time range such as 7d or 30d")
	return c
}

func newAnalysisExportCmd(rt *runtime) *cobra.Command {
	c := documentCmd(rt, "export", "Export a report over a time range", cobra.NoArgs, fixedPath("/analisis-profundo"),
		func(cmd *cobra.Command, a *app.App, _ []string) (platform.Document, error) {
			r, _ := cmd.Flags().GetString("range")
			return a.Services.Analysis.ExportReport(cmd.Context(), r)
		})
	c.Flags().String("range", "7d", "time range such as 7d or 30d")
	return c
}

func newAnalysisHistoryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/analisis")
			if err != nil {
				return err
			}
			docs, err := a.Services.Analysis.History(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, documentsOutput(docs))
		},
	}
}
