package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the hcm version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if outputFormat == "json" || outputFormat == "yaml" {
			return formatOutput(out, version.Get())
		}
		fmt.Fprintf(out, "hcm %s\n", version.Get().Full())
		return nil
	},
}
