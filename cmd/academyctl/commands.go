package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/db"
	"github.com/Dosada05/academy-system/ledger"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/services"
	"github.com/Dosada05/academy-system/utils"
)

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := db.Migrate(cmd.Context(), conn, opts.logger())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied: %s\n", strings.Join(applied, ", "))
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the admin password",
		Long:  "Without an argument the password is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}

			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newReportCmd(opts *cliOptions) *cobra.Command {
	var (
		month  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the payment report for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != "" && !ledger.IsMonthKey(month) {
				return fmt.Errorf("invalid --month %q, expected YYYY-MM", month)
			}

			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			subscriptions := services.NewSubscriptionService(
				repositories.NewPostgresPlayerRepository(conn), nil, clock.New(), opts.logger(),
			)
			report, err := subscriptions.MonthlyReport(cmd.Context(), month)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, asJSON)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month in YYYY-MM format (default: current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func hashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no password on stdin")
	}
	return scanner.Text(), nil
}

func printReport(w io.Writer, report models.SubscriptionReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Month:      %s (%s)\n", report.Month, report.MonthLabel)
	fmt.Fprintf(w, "Paid:       %d players, %.2f\n", report.PaidCount, report.PaidAmount)
	fmt.Fprintf(w, "Unpaid:     %d players, %.2f\n", report.UnpaidCount, report.UnpaidAmount)
	fmt.Fprintf(w, "Total:      %.2f\n", report.TotalAmount)
	fmt.Fprintf(w, "Collection: %s\n", report.CollectionDisplay)
	return nil
}
