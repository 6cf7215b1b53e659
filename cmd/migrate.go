package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/store"
	"github.com/sells-group/ooh-planner/pkg/geocode"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  "Creates the reservations table for the configured store. With the postgres driver the geocode cache table is created too.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		if pg, ok := st.(*store.PostgresStore); ok {
			if _, err := pg.Pool().Exec(ctx, geocode.CacheMigration); err != nil {
				return eris.Wrap(err, "migrate: geocode cache")
			}
		}

		zap.L().Info("migration complete", zap.String("driver", cfg.Store.Driver))
		fmt.Println("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
