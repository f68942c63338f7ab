package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/version"
)

func newVersionCmd(_ *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return cc.Print(cmd, version.GetInfo())
		},
	}
}
