package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/partition"
	"github.com/hiveline/hiveline/internal/table"
)

// Partition listing flags
var (
	daysBack   int
	daysRef    string
	monthsBack int
	monthsRef  string
	boundsOnly bool
)

// daysCmd lists recent day partitions
var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "List recent day partitions",
	Long: `Print the most recent day partition identifiers with their dates,
oldest first.

Examples:
  hiveline days
  hiveline days -r 7
  hiveline days -r 7 --ref 20240115`,
	Args: cobra.NoArgs,
	RunE: runDays,
}

// monthsCmd lists recent month partitions
var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List recent month partitions",
	Long: `Print the most recent month partition identifiers with their months,
oldest first.

Examples:
  hiveline months
  hiveline months -r 6 --ref 202401`,
	Args: cobra.NoArgs,
	RunE: runMonths,
}

// partitionsCmd lists the days of one month
var partitionsCmd = &cobra.Command{
	Use:   "partitions <month>",
	Short: "List the day partitions of a month",
	Long: `Print every day partition in the given month. The month may be a
YYYYMM date or a raw partition identifier. With --seconds each day's
Unix second range is included.

Examples:
  hiveline partitions 202402
  hiveline partitions 654 --seconds`,
	Args: cobra.ExactArgs(1),
	RunE: runPartitions,
}

func init() {
	daysCmd.Flags().IntVarP(&daysBack, "recent", "r", 10, "Number of days to list")
	daysCmd.Flags().StringVar(&daysRef, "ref", "", "Reference day as YYYYMMDD (default: today)")
	monthsCmd.Flags().IntVarP(&monthsBack, "recent", "r", 12, "Number of months to list")
	monthsCmd.Flags().StringVar(&monthsRef, "ref", "", "Reference month as YYYYMM (default: this month)")
	partitionsCmd.Flags().BoolVar(&boundsOnly, "seconds", false, "Include Unix second bounds per day")
}

func runDays(cmd *cobra.Command, args []string) error {
	ref := partition.Today()
	if daysRef != "" {
		var err error
		if ref, err = partition.ParseDay(daysRef); err != nil {
			return err
		}
	}

	t := &table.Table{Columns: []string{"day", "date"}}
	for _, d := range partition.Days(ref, daysBack) {
		t.Rows = append(t.Rows, []string{strconv.Itoa(d), partition.FormatDay(d)})
	}

	newOutput().Table(t, "")
	return nil
}

func runMonths(cmd *cobra.Command, args []string) error {
	ref := partition.ThisMonth()
	if monthsRef != "" {
		var err error
		if ref, err = partition.ParseMonth(monthsRef); err != nil {
			return err
		}
	}

	t := &table.Table{Columns: []string{"month", "date"}}
	for _, m := range partition.Months(ref, monthsBack) {
		t.Rows = append(t.Rows, []string{strconv.Itoa(m), partition.FormatMonth(m)})
	}

	newOutput().Table(t, "")
	return nil
}

func runPartitions(cmd *cobra.Command, args []string) error {
	month, err := parseMonthArg(args[0])
	if err != nil {
		return err
	}

	out := newOutput()

	if boundsOnly {
		t := &table.Table{Columns: []string{"day", "date", "start", "end"}}
		for _, b := range partition.DayBounds(month) {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(b.Day),
				partition.FormatDay(b.Day),
				strconv.FormatInt(b.Start, 10),
				strconv.FormatInt(b.End, 10),
			})
		}
		out.Table(t, "")
		return nil
	}

	t := &table.Table{Columns: []string{"day", "date"}}
	for _, d := range partition.DaysOf(month) {
		t.Rows = append(t.Rows, []string{strconv.Itoa(d), partition.FormatDay(d)})
	}
	out.Table(t, fmt.Sprintf("%d days in %s", partition.DaysIn(month), partition.FormatMonth(month)))
	return nil
}

// parseMonthArg accepts either a YYYYMM date or a raw identifier.
func parseMonthArg(s string) (int, error) {
	if len(s) == 6 {
		if m, err := partition.ParseMonth(s); err == nil {
			return m, nil
		}
	}
	m, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: expected YYYYMM or an identifier", s)
	}
	return m, nil
}
