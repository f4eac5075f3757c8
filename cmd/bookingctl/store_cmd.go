package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/infra/postgres"
	pgRepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/postgres"
	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the seat and booking tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := postgres.Connect(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer postgres.Disconnect(pool)

			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return err
		},
	}
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [SEAT|RANGE]...",
		Short: "Insert available seats, e.g. seed A1-A10 B1",
		Long:  "Insert available seats. Without arguments the SEED_SEATS configuration is used. Existing seats are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			seats := cfg.Store.SeedSeats
			if len(args) > 0 {
				seats = config.ExpandSeatRanges(args)
			}
			if len(seats) == 0 {
				return fmt.Errorf("no seats to seed")
			}

			l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
				Level:    cfg.Log.Level,
				Mode:     cfg.Log.Mode,
				Encoding: cfg.Log.Encoding,
			})

			pool, err := postgres.Connect(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer postgres.Disconnect(pool)

			n, err := pgRepo.NewSeatRepository(pool, l).Seed(ctx, seats)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "inserted %d of %d seats\n", n, len(seats))
			return err
		},
	}
	return cmd
}
