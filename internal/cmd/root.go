package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/ux"
)

// Option customises the command tree, mainly for tests.
type Option func(*runtime)

// WithAppOptions passes options through to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(rt *runtime) { rt.appOpts = append(rt.appOpts, opts...) }
}

// WithPrompter replaces the interactive huh forms.
func WithPrompter(p ux.Prompter) Option {
	return func(rt *runtime) { rt.prompter = p }
}

// NewRootCmd builds the psichat command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	root, _ := newRoot(opts...)
	return root
}

func newRoot(opts ...Option) (*cobra.Command, *runtime) {
	rt := &runtime{prompter: ux.FormPrompter{}}
	for _, opt := range opts {
		opt(rt)
	}

	root := &cobra.Command{
		Use:   "psichat",
		Short: "Emotional support chat for students and tutors",
		Long: `psichat is the terminal client of the PsiChat platform.

Students chat with the support assistant and follow their emotional analysis.
Tutors review alerts, follow their students and intervene when needed.

The session token is kept in ~/.psichat/session.json between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("env", "", "runtime environment: development, production or test (default $PSICHAT_ENV or development)")
	pf.String("config", "", "config file (default is $HOME/.psichat/config.yaml)")
	pf.String("env-file", ".env", "dotenv file read before the environment")
	pf.StringP("format", "o", "text", "output format: text, json or yaml")
	pf.String("log-level", "", "log threshold: debug, info, warn or error")
	pf.Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newAuthCmd(rt),
		newChatCmd(rt),
		newAnalysisCmd(rt),
		newTutorCmd(rt),
		newUserCmd(rt),
		newOpenCmd(rt),
		newDiagCmd(rt),
		newVersionCmd(rt),
	)

	return root, rt
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by main.
func ExecuteContext(ctx context.Context) error {
	root, rt := newRoot()
	defer rt.close(context.WithoutCancel(ctx))
	err := root.ExecuteContext(ctx)
	rt.finish(err)
	return err
}
