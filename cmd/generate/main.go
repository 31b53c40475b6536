// Command generate builds the monthly enrollment records of one period.
//
//	generate -period 2026-03 [-db cuotas.db] [-pricing precios.json]
//	generate -print-pricing
//
// It exits non-zero if the run fails. Records saved before a failure stay
// saved; running the period again replaces them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/config"
	"github.com/mateatletas/cuotas/factory"
	"github.com/mateatletas/cuotas/store/sqlite"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	periodStr := fs.String("period", "", "Period to generate (YYYY-MM)")
	dbPath := fs.String("db", "", "SQLite database path")
	pricingFile := fs.String("pricing", "", "Price table JSON file")
	envFile := fs.String("env", "", "Environment file (default .env)")
	printPricing := fs.Bool("print-pricing", false, "Print the default price table and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *printPricing {
		fmt.Fprintln(out, factory.DefaultTableJSON())
		return nil
	}
	if *periodStr == "" {
		fs.Usage()
		return fmt.Errorf("-period is required")
	}
	period, err := billing.ParsePeriod(*periodStr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *pricingFile != "" {
		cfg.PricingFile = *pricingFile
	}
	logger := cfg.NewLogger()

	table, err := factory.NewTableFactory().LoadTableFile(cfg.PricingFile)
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := billing.NewGenerator(store, store, table, logger).Generate(ctx, period)
	if summary != nil {
		printSummary(out, summary)
	}
	return err
}

func printSummary(out io.Writer, s *billing.Summary) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "period\t%s\n", s.Period)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "families\t%d\n", s.Families)
	fmt.Fprintf(tw, "records\t%d\n", s.Records)
	fmt.Fprintf(tw, "replaced\t%d\n", s.Cleared)
	fmt.Fprintf(tw, "without activities\t%d\n", s.Ineligible)
	fmt.Fprintf(tw, "subtotal\t%d\n", s.Totals.Subtotal)
	fmt.Fprintf(tw, "discounts\t%d\n", s.Totals.DiscountTotal)
	fmt.Fprintf(tw, "total\t%d\n", s.Revenue)
	for _, sk := range s.Skipped {
		fmt.Fprintf(tw, "skipped\t%s (tutor %s): %s\n", sk.StudentID, sk.TutorID, sk.Reason)
	}
	tw.Flush()
}
