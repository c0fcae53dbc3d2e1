package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/charity-reminder/internal/auth"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <remind_all|follow_up_unpaid|monthly_report>",
	Short: "Run a scheduled action now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := scheduler.ParseKind(args[0])
		if err != nil {
			return err
		}
		cfg, lg, err := setup()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.scheduler.Trigger(ctx, kind); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s done\n", kind)
		return nil
	},
}

var calendarTimezone string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Jalali calendar helpers",
}

var calendarTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Print today's Jalali date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		source, err := clock.NewSource(clock.SystemClock{}, calendarTimezone)
		if err != nil {
			return err
		}
		today := source.Today()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", today, today.Format())
		return nil
	},
}

var calendarToJalaliCmd = &cobra.Command{
	Use:   "to-jalali YYYY-MM-DD",
	Short: "Convert a Gregorian date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := time.Parse(time.DateOnly, args[0])
		if err != nil {
			return fmt.Errorf("invalid gregorian date %q: %w", args[0], err)
		}
		d, err := jalali.FromGregorian(t.Year(), t.Month(), t.Day())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.String())
		return nil
	},
}

var calendarToGregorianCmd = &cobra.Command{
	Use:   "to-gregorian YYYY/MM/DD",
	Short: "Convert a Jalali date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := jalali.Parse(args[0])
		if err != nil {
			return err
		}
		y, m, day := d.Gregorian()
		fmt.Fprintf(cmd.OutOrStdout(), "%04d-%02d-%02d\n", y, int(m), day)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		gen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
		token, expiresAt, err := gen.GenerateAccessToken(cfg.Security.AdminUsername)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash for security.admin_password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	calendarCmd.PersistentFlags().StringVar(&calendarTimezone, "timezone", "Asia/Tehran", "IANA timezone for today")
	calendarCmd.AddCommand(calendarTodayCmd, calendarToJalaliCmd, calendarToGregorianCmd)
}
