package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <manifest.yaml>",
		Short: "Validate search vector declarations in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, diags, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			for _, d := range diags {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			if len(diags) > 0 {
				return fmt.Errorf("%d problem(s) found", len(diags))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d model(s), no problems found\n", len(models))
			return nil
		},
	}
}
