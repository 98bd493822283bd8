package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/output"
	"github.com/Aman-CERP/typeindex/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON, short, verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the typeindex version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch {
			case short:
				_, err := fmt.Fprintln(w, version.Short())
				return err
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			case verbose:
				info := version.GetInfo()
				out := output.New(w)
				out.Header("typeindex " + info.Version)
				out.Fields(map[string]string{
					"Commit":   info.Commit,
					"Built":    info.Date,
					"Go":       info.GoVersion,
					"Platform": info.OS + "/" + info.Arch,
				})
				return nil
			}
			_, err := fmt.Fprintln(w, version.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build info as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one build field per line")
	return cmd
}
