package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/planner"
	"github.com/sells-group/ooh-planner/internal/report"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify inventory against the saved zones",
	Long:  "Loads the inventory, applies the saved proximity zones and selection flags, and prints each item's display state. Optionally writes a GeoJSON map layer.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		src, _ := cmd.Flags().GetString("inventory")
		items, err := loadInventory(ctx, src)
		if err != nil {
			return err
		}

		session, metrics, err := newSession(items)
		if err != nil {
			return err
		}
		defer writeMetrics(metrics)

		if err := applySelection(cmd, session); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(session.Views()); err != nil {
				return eris.Wrap(err, "classify: encode views")
			}
		} else if err := printViews(out, session.Views()); err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("geojson"); path != "" {
			if err := writeGeoJSON(session, path); err != nil {
				return err
			}
		}

		sum := session.Summary()
		zap.L().Info("classification complete",
			zap.Int("items", sum.Total),
			zap.Int("zones", sum.Zones),
			zap.Int("selected", sum.Selected),
			zap.Any("by_state", sum.ByState),
		)
		return nil
	},
}

// applySelection applies the shared selection flags in a fixed order:
// --all or --in-range, then --group, then --site, then --select toggles.
func applySelection(cmd *cobra.Command, s *planner.Session) error {
	if all, _ := cmd.Flags().GetBool("all"); all {
		s.SelectAll()
	}
	if inRange, _ := cmd.Flags().GetBool("in-range"); inRange {
		s.SelectInRange()
	}
	if err := toggleGroups(cmd, s); err != nil {
		return err
	}
	sites, _ := cmd.Flags().GetStringSlice("site")
	for _, id := range sites {
		if err := s.ToggleSite(id); err != nil {
			return err
		}
	}
	ids, _ := cmd.Flags().GetStringSlice("select")
	for _, id := range ids {
		if err := s.Click(id); err != nil {
			return err
		}
	}
	return nil
}

// toggleGroups applies the all-or-none rule to each --group of the
// inventory grouped by --group-by.
func toggleGroups(cmd *cobra.Command, s *planner.Session) error {
	keys, _ := cmd.Flags().GetStringSlice("group")
	if len(keys) == 0 {
		return nil
	}
	names, _ := cmd.Flags().GetStringSlice("group-by")
	dims, err := report.DimensionsByName(names)
	if err != nil {
		return err
	}
	res := report.GroupRows(report.ItemRows(s.Items()), dims)
	for _, key := range keys {
		g, ok := res.Find(key)
		if !ok {
			return eris.Errorf("no inventory group %q by %s", key, strings.Join(names, ", "))
		}
		if err := s.ToggleGroup(g.ItemIDs()); err != nil {
			return err
		}
	}
	return nil
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("inventory", "", "inventory sheet path or URL (default inventory.path)")
	cmd.Flags().Bool("all", false, "select every item")
	cmd.Flags().Bool("in-range", false, "select the items inside the saved zones")
	cmd.Flags().StringSlice("site", nil, "toggle both faces of the site holding this item id")
	cmd.Flags().StringSlice("group", nil, "toggle every item of this inventory group, e.g. \"CDMX\" or \"CDMX | Cuauhtémoc\"")
	cmd.Flags().StringSlice("group-by", []string{"plaza"}, "dimensions that define --group keys")
	cmd.Flags().StringSlice("select", nil, "toggle these item ids")
}

func printViews(w io.Writer, views []planner.ItemView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tFACE\tDISPLAY\tIN_RANGE\tSTATE\tCOLOR")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			v.Item.ID, v.Item.Code, v.Item.Face, v.DisplayFace, v.InRange, v.Decision.State, v.Decision.Color)
	}
	return tw.Flush()
}

func writeGeoJSON(s *planner.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := s.WriteGeoJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	addSelectionFlags(classifyCmd)
	classifyCmd.Flags().Bool("json", false, "print item views as JSON")
	classifyCmd.Flags().String("geojson", "", "write the map layer to this GeoJSON file")
	rootCmd.AddCommand(classifyCmd)
}
