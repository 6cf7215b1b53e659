package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Group a proposal's reservations into a report",
	Long:  "Joins a proposal's reservations with the inventory, groups them by the chosen dimensions, prints per-group totals, and optionally writes an XLSX report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		proposal, _ := cmd.Flags().GetString("proposal")

		names, _ := cmd.Flags().GetStringSlice("by")
		if !cmd.Flags().Changed("by") {
			names = cfg.Report.Dimensions
		}
		dims, err := report.DimensionsByName(names)
		if err != nil {
			return err
		}

		var opts []report.Option
		if q, _ := cmd.Flags().GetString("filter"); q != "" {
			opts = append(opts, report.WithFilter(report.MatchText(q)))
		}
		if sortBy, _ := cmd.Flags().GetString("sort"); sortBy != "" {
			sortDims, err := report.DimensionsByName([]string{sortBy})
			if err != nil {
				return err
			}
			d := sortDims[0]
			opts = append(opts, report.WithComparator(func(a, b report.Row) bool {
				return d.Value(a) < d.Value(b)
			}))
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListByProposal(ctx, proposal)
		if err != nil {
			return err
		}

		var items []inventory.Item
		src, _ := cmd.Flags().GetString("inventory")
		if src != "" || cfg.Inventory.Path != "" {
			if items, err = loadInventory(ctx, src); err != nil {
				return err
			}
		}

		res := report.GroupRows(report.RowsFrom(items, records), dims, opts...)
		if err := printGroups(cmd.OutOrStdout(), res); err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := writeReport(out, res); err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", out), zap.Int("groups", len(res.Groups)))
		}
		return nil
	},
}

func printGroups(w io.Writer, res report.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tCOUNT\tUNITS\tNET")
	for _, g := range res.Groups {
		t := g.Totals()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", g.Key, t.Count, t.Units, t.Net.StringFixed(2))
	}
	total := res.Total()
	fmt.Fprintf(tw, "Total\t%d\t%d\t%s\n", total.Count, total.Units, total.Net.StringFixed(2))
	return tw.Flush()
}

func writeReport(path string, res report.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := report.WriteXLSX(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	reportCmd.Flags().String("proposal", "", "proposal id (required)")
	_ = reportCmd.MarkFlagRequired("proposal")
	reportCmd.Flags().String("inventory", "", "inventory sheet path or URL (default inventory.path)")
	reportCmd.Flags().StringSlice("by", nil, "grouping dimensions: catorcena, plaza, municipio, tipo, cara, ubicacion, codigo (default report.dimensions)")
	reportCmd.Flags().String("filter", "", "keep rows whose code, plaza, or location contains this text")
	reportCmd.Flags().String("sort", "", "order rows by this dimension before grouping")
	reportCmd.Flags().String("out", "", "write the report to this XLSX file")
	rootCmd.AddCommand(reportCmd)
}
