package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/reclaim/internal/platform"
	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reclaim %s (%s) built %s\n", appVersion, appCommit, appDate)
			fmt.Fprintf(out, "rule table %s\n", rules.TableVersion)
			fmt.Fprintf(out, "%s\n", platform.Version())
		},
	}
}
