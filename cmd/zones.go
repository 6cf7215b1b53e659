package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/fetcher"
	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/zones"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Manage proximity zones",
	Long:  "Adds, imports, geocodes, lists, and removes the proximity zones saved in the zones file.",
}

// appendZones adds zs to the saved list, all or nothing.
func appendZones(zs []geo.Zone) error {
	existing, err := zones.LoadFile(cfg.Zones.File)
	if err != nil {
		return err
	}
	set, err := geo.NewZoneSet(existing...)
	if err != nil {
		return err
	}
	if err := set.AddAll(zs); err != nil {
		return err
	}
	if err := zones.SaveFile(cfg.Zones.File, set.Zones()); err != nil {
		return err
	}
	zap.L().Info("zones saved",
		zap.String("file", cfg.Zones.File),
		zap.Int("added", len(zs)),
		zap.Int("total", set.Len()),
	)
	return nil
}

func radiusFlag(cmd *cobra.Command) float64 {
	r, _ := cmd.Flags().GetFloat64("radius")
	if r == 0 {
		return cfg.Proximity.DefaultRadiusM
	}
	return r
}

var zonesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a zone at a coordinate",
	Long:  "Adds a zone at --lat/--lng. With --label the zone is recorded as a search result, otherwise as a manual pin.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("zones"); err != nil {
			return err
		}
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		label, _ := cmd.Flags().GetString("label")

		var (
			z   geo.Zone
			err error
		)
		if label != "" {
			z, err = zones.FromSearchResult(label, lat, lng, radiusFlag(cmd))
		} else {
			z, err = zones.FromManualPin(lat, lng, radiusFlag(cmd))
		}
		if err != nil {
			return err
		}
		if err := appendZones([]geo.Zone{z}); err != nil {
			return err
		}
		fmt.Printf("added zone %s (%s)\n", z.ID, z.Label)
		return nil
	},
}

var zonesGeocodeCmd = &cobra.Command{
	Use:   "geocode [address...]",
	Short: "Add zones by resolving addresses",
	Long:  "Geocodes each address with Google and adds one zone per match. Any provider failure adds nothing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		addrs := args
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			lines, err := readLines(path)
			if err != nil {
				return err
			}
			addrs = append(addrs, lines...)
		}
		if len(addrs) == 0 {
			return eris.New("no addresses given")
		}

		client, closeGeocoder, err := newGeocoder(ctx)
		if err != nil {
			return err
		}
		defer closeGeocoder()

		res, err := zones.ResolveAddresses(ctx, client, addrs, radiusFlag(cmd), cfg.Geocode.Concurrency)
		if err != nil {
			return eris.Wrap(err, "zones geocode")
		}
		for _, a := range res.Unmatched {
			fmt.Printf("unmatched: %s\n", a)
		}
		if len(res.Zones) == 0 {
			return nil
		}
		if err := appendZones(res.Zones); err != nil {
			return err
		}
		fmt.Printf("added %d zones\n", len(res.Zones))
		return nil
	},
}

var zonesImportCmd = &cobra.Command{
	Use:   "import <shapefile>",
	Short: "Add zones from a shapefile",
	Long:  "Imports a .shp or zipped shapefile (local path or http(s) URL) and adds one zone per shape.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("zones"); err != nil {
			return err
		}
		src := args[0]
		labelField, _ := cmd.Flags().GetString("label-field")

		path := src
		if fetcher.IsRemote(src) {
			tmp, cleanup, err := fetcher.ToTempFile(cmd.Context(), fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), src)
			if err != nil {
				return eris.Wrap(err, "fetch shapefile")
			}
			defer cleanup()
			path = tmp
		}

		zs, err := zones.ImportBoundaryFile(path, radiusFlag(cmd), labelField)
		if err != nil {
			return err
		}
		if err := appendZones(zs); err != nil {
			return err
		}
		fmt.Printf("imported %d zones\n", len(zs))
		return nil
	},
}

var zonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved zones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		zs, err := zones.LoadFile(cfg.Zones.File)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tORIGIN\tCENTER\tRADIUS_M\tLABEL")
		for _, z := range zs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\n", z.ID, z.Origin, z.Center, z.RadiusMeters, z.Label)
		}
		return w.Flush()
	},
}

var zonesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a saved zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := zones.LoadFile(cfg.Zones.File)
		if err != nil {
			return err
		}
		set, err := geo.NewZoneSet(existing...)
		if err != nil {
			return err
		}
		if !set.Remove(args[0]) {
			return eris.Errorf("zone %s not found", args[0])
		}
		return zones.SaveFile(cfg.Zones.File, set.Zones())
	},
}

var zonesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved zone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := zones.SaveFile(cfg.Zones.File, nil); err != nil {
			return err
		}
		fmt.Println("zones cleared; proximity filtering is off")
		return nil
	},
}

// readLines returns the non-blank lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, eris.Wrapf(sc.Err(), "read %s", path)
}

func init() {
	for _, c := range []*cobra.Command{zonesAddCmd, zonesGeocodeCmd, zonesImportCmd} {
		c.Flags().Float64("radius", 0, "zone radius in meters (default proximity.default_radius_m)")
	}
	zonesAddCmd.Flags().Float64("lat", 0, "latitude (required)")
	zonesAddCmd.Flags().Float64("lng", 0, "longitude (required)")
	zonesAddCmd.Flags().String("label", "", "place name; marks the zone as a search result")
	_ = zonesAddCmd.MarkFlagRequired("lat")
	_ = zonesAddCmd.MarkFlagRequired("lng")

	zonesGeocodeCmd.Flags().String("file", "", "file with one address per line")
	zonesImportCmd.Flags().String("label-field", "", "attribute used as the zone label")

	zonesCmd.AddCommand(zonesAddCmd, zonesGeocodeCmd, zonesImportCmd, zonesListCmd, zonesRemoveCmd, zonesClearCmd)
	rootCmd.AddCommand(zonesCmd)
}
