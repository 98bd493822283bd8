package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/output"
	"github.com/Aman-CERP/typeindex/pkg/typeindex"
)

func newMergeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "merge <out> <index>...",
		Short: "Merge saved indexes into one",
		Long: `Load every index, union their facts and save the result to <out>.
Input formats are taken from the file extensions.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ix, err := typeindex.Collect(ctx, args[1:]...)
			if err != nil {
				return err
			}
			path, err := ix.Save(ctx, args[0], format)
			if err != nil {
				return err
			}

			stats := ix.Stats()
			output.New(cmd.OutOrStdout()).Successf("Merged %d indexes into %s (%d facts in %d categories)",
				len(args)-1, path, stats.Values, stats.Categories)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Snapshot format: json, yaml or sqlite (default from extension)")
	return cmd
}
