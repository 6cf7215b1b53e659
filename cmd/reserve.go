package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/reservation"
	"github.com/sells-group/ooh-planner/internal/store"
)

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve the selected inventory for a proposal",
	Long:  "Selects inventory with the selection flags and records one reservation per selected item for a proposal and catorcena. Paired faces of one site share a group.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		req, err := reservationRequest(cmd)
		if err != nil {
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

		records, err := session.Assign(req)
		if err != nil {
			return err
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			return printRecords(cmd.OutOrStdout(), records)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Create(ctx, records); err != nil {
			return eris.Wrap(err, "reserve: save records")
		}
		zap.L().Info("reservations created",
			zap.String("proposal_id", req.ProposalID),
			zap.Int("records", len(records)),
		)
		return printRecords(cmd.OutOrStdout(), records)
	},
}

// reservationRequest reads the proposal, period, and amount flags.
func reservationRequest(cmd *cobra.Command) (reservation.Request, error) {
	proposal, _ := cmd.Flags().GetString("proposal")
	rate, err := decimalFlag(cmd, "rate")
	if err != nil {
		return reservation.Request{}, err
	}
	discount, err := decimalFlag(cmd, "discount")
	if err != nil {
		return reservation.Request{}, err
	}
	period, err := periodFlags(cmd)
	if err != nil {
		return reservation.Request{}, err
	}
	units, _ := cmd.Flags().GetInt("units")
	allow, _ := cmd.Flags().GetBool("allow-conflicts")

	return reservation.Request{
		ProposalID:     proposal,
		Period:         period,
		Rate:           rate,
		Discount:       discount,
		Units:          units,
		AllowConflicts: allow,
	}, nil
}

func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "invalid --%s %q", name, s)
	}
	return d, nil
}

// periodFlags returns the period named by --catorcena/--year, or the one
// containing --date. Neither set means no period.
func periodFlags(cmd *cobra.Command) (*reservation.Period, error) {
	ordinal, _ := cmd.Flags().GetInt("catorcena")
	year, _ := cmd.Flags().GetInt("year")
	date, _ := cmd.Flags().GetString("date")

	switch {
	case ordinal != 0:
		if year == 0 {
			year = time.Now().Year()
		}
		p := reservation.Period{Ordinal: ordinal, Year: year}
		cal, err := calendar()
		if err != nil {
			return nil, err
		}
		if _, _, err := cal.Range(p); err != nil {
			return nil, err
		}
		return &p, nil
	case date != "":
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid --date %q", date)
		}
		cal, err := calendar()
		if err != nil {
			return nil, err
		}
		p := cal.PeriodFor(t)
		return &p, nil
	}
	return nil, nil
}

var reserveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a proposal's reservations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		proposal, _ := cmd.Flags().GetString("proposal")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListByProposal(ctx, proposal)
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records)
	},
}

var reserveRepriceCmd = &cobra.Command{
	Use:   "reprice",
	Short: "Change the rate, discount, or period of a proposal's reservations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		proposal, _ := cmd.Flags().GetString("proposal")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListByProposal(ctx, proposal)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("proposal %s has no reservations", proposal)
		}

		period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		for i := range records {
			if cmd.Flags().Changed("rate") && records[i].Face != inventory.FaceBonificacion {
				if records[i].Rate, err = decimalFlag(cmd, "rate"); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("discount") {
				if records[i].Discount, err = decimalFlag(cmd, "discount"); err != nil {
					return err
				}
			}
			if period != nil {
				records[i].Period = period
			}
		}

		if err := st.Save(ctx, records); err != nil {
			return eris.Wrap(err, "reserve: reprice")
		}
		return printRecords(cmd.OutOrStdout(), records)
	},
}

var reserveDeleteCmd = &cobra.Command{
	Use:   "delete <reservation-id>",
	Short: "Delete one reservation; paired records are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		proposal, _ := cmd.Flags().GetString("proposal")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		siblings, err := deleteReservation(ctx, st, proposal, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		if len(siblings) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "kept paired reservations: %s\n", strings.Join(siblings, ", "))
		}
		return nil
	},
}

// deleteReservation deletes id if it belongs to proposal and returns the ids
// of its paired siblings, which stay stored.
func deleteReservation(ctx context.Context, st store.Store, proposal, id string) ([]string, error) {
	records, err := st.ListByProposal(ctx, proposal)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(records, func(r reservation.Record) bool { return r.ID == id }) {
		return nil, eris.Wrapf(store.ErrNotFound, "reservation %s in proposal %s", id, proposal)
	}
	siblings := reservation.NewGroupIndex(records).Remove(id)
	if err := st.Delete(ctx, id); err != nil {
		return nil, err
	}
	return siblings, nil
}

func printRecords(w io.Writer, records []reservation.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tFACE\tPERIOD\tGROUP\tUNITS\tRATE\tDISCOUNT\tNET")
	for _, r := range records {
		period := "-"
		if r.Period != nil {
			period = r.Period.Label()
		}
		group := r.GroupID
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s%%\t%s\n",
			r.ID, r.InventoryItemID, r.Face, period, group, r.Units,
			r.Rate.StringFixed(2), r.Discount.String(), r.Net().StringFixed(2))
	}
	return tw.Flush()
}

func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().Int("catorcena", 0, "catorcena ordinal (1-27)")
	cmd.Flags().Int("year", 0, "catorcena year (default current year)")
	cmd.Flags().String("date", "", "pick the catorcena containing this date (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("catorcena", "date")
}

func init() {
	for _, c := range []*cobra.Command{reserveCmd, reserveListCmd, reserveRepriceCmd, reserveDeleteCmd} {
		c.Flags().String("proposal", "", "proposal id (required)")
		_ = c.MarkFlagRequired("proposal")
	}
	for _, c := range []*cobra.Command{reserveCmd, reserveRepriceCmd} {
		c.Flags().String("rate", "", "rate per face")
		c.Flags().String("discount", "", "discount percent (0-100)")
		addPeriodFlags(c)
	}

	addSelectionFlags(reserveCmd)
	reserveCmd.Flags().Int("units", 1, "units per reservation")
	reserveCmd.Flags().Bool("allow-conflicts", false, "reserve items already reserved elsewhere")
	reserveCmd.Flags().Bool("dry-run", false, "print the records without saving them")

	reserveCmd.AddCommand(reserveListCmd, reserveRepriceCmd, reserveDeleteCmd)
	rootCmd.AddCommand(reserveCmd)
}
