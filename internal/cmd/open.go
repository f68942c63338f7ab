package cmd

import (
	"github.com/spf13/cobra"
)

func newOpenCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Resolve a page through the route guard",
		Long: `Resolve a page the way the web client would: the route guard decides
whether the current session may see it and where it is sent otherwise.

Examples:
  psichat open /analisis
  psichat open /tutor/chat/42 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}
			return cc.Print(cmd, newNavigationOutput(a.Open(args[0])))
		},
	}
}
