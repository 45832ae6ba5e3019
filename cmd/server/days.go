package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vacations/internal/domain/calendar"
)

const dateLayout = "2006-01-02"

func newDaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "days",
		Short: "Business-day calculations without a running server",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "count START END",
		Short:   "Count Monday-Friday days between two dates, inclusive",
		Example: "  vacations days count 2024-01-08 2024-01-19",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseDates(args[0], args[1])
			if err != nil {
				return err
			}
			n := calendar.CountBusinessDays(start, end)
			fmt.Fprintf(cmd.OutOrStdout(), "%s .. %s: %s business day(s)\n",
				args[0], args[1], color.New(color.Bold).Sprint(n))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "end START DAYS",
		Short:   "Find the date on which DAYS business days starting at START run out",
		Example: "  vacations days end 2024-01-06 5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("days must be a whole number: %w", err)
			}
			end, err := calendar.AdvanceToEndDate(start, days)
			if err != nil {
				return fmt.Errorf("days must be greater than 0: %w", err)
			}
			first := calendar.NextBusinessDay(start)
			fmt.Fprintf(cmd.OutOrStdout(), "%d business day(s) from %s: %s .. %s\n",
				days, args[0], first.Format(dateLayout), color.New(color.Bold).Sprint(end.Format(dateLayout)))
			return nil
		},
	})
	return cmd
}

func parseDates(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(dateLayout, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}
