package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/health"
	"github.com/felixgeelhaar/psichat/internal/metrics"
)

func newDiagCmd(rt *runtime) *cobra.Command {
	c := &cobra.Command{
		Use:   "diag",
		Short: "Show the resolved configuration and client counters",
		Long: `Show the resolved configuration, the session phase and the counters
collected while this process ran. With --check the backend /health
endpoint and the stored credentials are probed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}

			out := diagOutput{
				Environment: a.Config.Environment,
				APIBaseURL:  a.Config.APIBaseURL,
				Timeout:     a.Config.Timeout.String(),
				LogLevel:    a.Config.LogLevel,
				TokenPath:   a.Config.TokenPath,
				Phase:       string(a.Session.State().Phase()),
				Location:    a.Router.Location(),
			}

			if check, _ := cmd.Flags().GetBool("check"); check {
				m := health.NewManager()
				m.AddChecker(health.NewBackendChecker(a.Services.System))
				m.AddChecker(health.NewCredentialsChecker(a.Tokens, nil))
				out.Checks = m.Check(cmd.Context())
				out.Overall = string(m.OverallStatus(out.Checks))
			}

			// Gathered last so the probes show up in the counters.
			samples, err := metrics.Snapshot(a.Registry)
			if err != nil {
				return fmt.Errorf("failed to gather metrics: %w", err)
			}
			out.Metrics = samples

			return cc.Print(cmd, out)
		},
	}
	c.Flags().Bool("check", false, "probe the backend and the stored credentials")
	return c
}
