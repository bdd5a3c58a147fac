// generate-daily-orders creates pending daily orders for every meal that an
// active, paid subscription covers on a date. Run it once a day before
// residents start choosing their meals.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/yeremiapane/hostel-meals/config"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var dateFlag string
	var dryRun bool

	flagSet := pflag.NewFlagSet("generate-daily-orders", pflag.ContinueOnError)
	flagSet.StringVar(&dateFlag, "date", "", "order date as YYYY-MM-DD (default: today)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "count the orders that would be created without writing them")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	date := models.DateOf(time.Now())
	if dateFlag != "" {
		parsed, err := models.ParseDate(dateFlag)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", dateFlag, err)
		}
		date = parsed
	}

	utils.InitLogger()
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		return err
	}

	generator := services.NewDailyOrderGenerator(db)
	generator.DryRun = dryRun
	result, err := generator.Generate(context.Background(), date)
	if err != nil {
		return err
	}

	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Printf("%s: %d generated, %d skipped%s\n", result.Date, result.Generated, result.Skipped, mode)
	return nil
}
