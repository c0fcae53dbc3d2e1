package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	donorPostgres "github.com/frahmantamala/charity-reminder/internal/donor/postgres"
	"github.com/frahmantamala/charity-reminder/internal/observability"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load donors from a CSV file",
	Long:  `Load donors from a CSV with the columns pin-code, full name, amount and donation link. Rows whose PIN is already registered are reported and skipped.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "donor CSV (defaults to seed.path from config)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, lg, err := setup()
	if err != nil {
		return err
	}

	path := seedFile
	if path == "" {
		path = cfg.Seed.Path
	}
	if path == "" {
		return fmt.Errorf("no seed file given")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	records, invalid, err := donor.ParseSeedCSV(f)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := donor.NewService(donorPostgres.NewDonorRepository(db.Gorm), nil, clock.SystemClock{}, observability.NewMetrics(), lg)
	report, err := svc.Seed(ctx, records)
	if err != nil {
		return err
	}
	report.Invalid = append(report.Invalid, invalid...)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "inserted %d donors\n", report.Inserted)
	for _, c := range report.Conflicts {
		fmt.Fprintf(out, "conflict line %d (pin %s): %s\n", c.Line, c.PIN, c.Reason)
	}
	for _, c := range report.Invalid {
		fmt.Fprintf(out, "invalid line %d: %s\n", c.Line, c.Reason)
	}
	return nil
}
