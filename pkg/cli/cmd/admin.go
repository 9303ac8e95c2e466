package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"universal-redaction/internal/redaction"
)

func newReloadCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Clear the server's detection cache (requires --key)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := o.client.ReloadCache(cmd.Context())
			if err != nil {
				return fmt.Errorf("reload failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.Message)
			return nil
		},
	}
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the entity types the detector reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tLABEL\tCATEGORY\tPLACEHOLDER")
			for _, t := range redaction.AllEntityTypes() {
				info := t.Info()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t, info.Label, info.Category, t.Placeholder())
			}
			return tw.Flush()
		},
	}
}
