package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/output"
	"github.com/Aman-CERP/typeindex/pkg/typeindex"
)

type queryFlags struct {
	index      string
	jsonOutput bool
}

func newQueryCmd() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a saved index",
	}
	cmd.PersistentFlags().StringVarP(&f.index, "index", "i", "", "Index file (default from config)")
	cmd.PersistentFlags().BoolVar(&f.jsonOutput, "json", false, "Print results as a JSON array")

	cmd.AddCommand(newQuerySubtypesCmd(&f))
	cmd.AddCommand(newQueryResourcesCmd(&f))
	cmd.AddCommand(newQueryTypesCmd(&f))
	cmd.AddCommand(newQueryGetCmd(&f))
	return cmd
}

func newQuerySubtypesCmd(f *queryFlags) *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "subtypes <type>",
		Short: "List every type extending or implementing a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, f, func(ix *typeindex.Index) ([]string, error) {
				if direct {
					return ix.DirectSubTypesOf(args[0])
				}
				return ix.SubTypesOf(args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "Only types declaring the supertype themselves")
	return cmd
}

func newQueryResourcesCmd(f *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resources <regex>",
		Short: "List resource paths whose file name matches a regex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, f, func(ix *typeindex.Index) ([]string, error) {
				return ix.Resources(args[0])
			})
		},
	}
}

func newQueryTypesCmd(f *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List every scanned type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, f, func(ix *typeindex.Index) ([]string, error) {
				return ix.AllTypes()
			})
		},
	}
}

func newQueryGetCmd(f *queryFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "get <category> <key>...",
		Short: "List the values stored under keys of any category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, f, func(ix *typeindex.Index) ([]string, error) {
				if all {
					return ix.GetAll(args[0], args[1:]...)
				}
				return ix.Get(args[0], args[1:]...)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Follow values transitively")
	return cmd
}

func runQuery(cmd *cobra.Command, f *queryFlags, query func(*typeindex.Index) ([]string, error)) error {
	ix, err := openIndex(cmd, f.index)
	if err != nil {
		return err
	}

	results, err := query(ix)
	if err != nil {
		return err
	}
	if results == nil {
		results = []string{}
	}

	if f.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	output.New(cmd.OutOrStdout()).List(results)
	return nil
}

// openIndex loads the index at path, or at the configured snapshot path
// when path is empty.
func openIndex(cmd *cobra.Command, path string) (*typeindex.Index, error) {
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Snapshot.Path
	}
	return typeindex.Load(cmd.Context(), path)
}
