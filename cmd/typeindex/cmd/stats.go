package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/output"
)

// categoryStats is the per-category line of the stats command.
type categoryStats struct {
	Name   string `json:"name"`
	Keys   int    `json:"keys"`
	Values int    `json:"values"`
}

type statsReport struct {
	Categories []categoryStats `json:"categories"`
	Keys       int             `json:"keys"`
	Values     int             `json:"values"`
}

func newStatsCmd() *cobra.Command {
	var index string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show category sizes of a saved index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := openIndex(cmd, index)
			if err != nil {
				return err
			}

			st := ix.Store()
			report := statsReport{Categories: []categoryStats{}}
			for _, name := range st.Categories() {
				cat, err := st.Category(name)
				if err != nil {
					return err
				}
				cs := categoryStats{Name: name, Keys: len(cat.Keys()), Values: cat.Len()}
				report.Categories = append(report.Categories, cs)
				report.Keys += cs.Keys
				report.Values += cs.Values
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			out := output.New(cmd.OutOrStdout())
			for _, cs := range report.Categories {
				out.Header(cs.Name)
				out.Fields(map[string]string{
					"keys":   strconv.Itoa(cs.Keys),
					"values": strconv.Itoa(cs.Values),
				})
			}
			out.Newline()
			out.Status("", fmt.Sprintf("%d categories, %d keys, %d facts", len(report.Categories), report.Keys, report.Values))
			return nil
		},
	}
	cmd.Flags().StringVarP(&index, "index", "i", "", "Index file (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
