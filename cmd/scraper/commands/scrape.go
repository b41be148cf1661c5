package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/scraper"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

var scrapeOpts struct {
	hotel       string
	start       string
	days        int
	ranges      int
	concurrency int
	headless    bool
	out         string
	user        string
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeOpts.hotel, "hotel", "", "Property name to search for.")
	f.StringVar(&scrapeOpts.start, "start", "", "First check-in date (YYYY-MM-DD); defaults to today.")
	f.IntVar(&scrapeOpts.days, "days", 0, "Number of consecutive check-in dates; defaults to SCRAPER_HORIZON_DAYS.")
	f.IntVar(&scrapeOpts.ranges, "ranges", 0, "Number of sub-ranges, one tab each.")
	f.IntVar(&scrapeOpts.concurrency, "concurrency", 0, "Maximum tabs open at once.")
	f.BoolVar(&scrapeOpts.headless, "headless", true, "Run Chrome headless (false = visible window).")
	f.StringVar(&scrapeOpts.out, "out", "", "Write the result to this .json or .csv file.")
	f.StringVar(&scrapeOpts.user, "user", "", "Also save rows to the store under this user id.")
	_ = scrapeCmd.MarkFlagRequired("hotel")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --hotel <name> [--days N] [--out file.json|file.csv]",
	Short: "Scrapes room prices for one property across a window of check-in dates.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run := cfg
		if scrapeOpts.days > 0 {
			run.HorizonDays = scrapeOpts.days
		}
		if scrapeOpts.ranges > 0 {
			run.Ranges = scrapeOpts.ranges
		}
		if scrapeOpts.concurrency > 0 {
			run.Concurrency = scrapeOpts.concurrency
		}
		if cmd.Flags().Changed("headless") {
			run.Headless = scrapeOpts.headless
		}
		if scrapeOpts.user != "" {
			if _, err := uuid.Parse(scrapeOpts.user); err != nil {
				return fmt.Errorf("--user %q is not a UUID", scrapeOpts.user)
			}
		}

		start := time.Now().UTC().Truncate(24 * time.Hour)
		if scrapeOpts.start != "" {
			d, err := time.Parse(models.DateLayout, scrapeOpts.start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			start = d
		}
		window := models.DateWindow{Start: start, HorizonDays: run.HorizonDays}

		logger.Info("scrape starting",
			"hotel", scrapeOpts.hotel,
			"start", start.Format(models.DateLayout),
			"days", run.HorizonDays,
			"ranges", run.Ranges,
			"concurrency", run.Concurrency,
			"headless", run.Headless,
		)

		if run.JobTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, run.JobTimeout)
			defer cancel()
		}

		allocCtx, cancelAlloc := utils.NewAllocator(ctx, run)
		defer cancelAlloc()
		browser, err := scraper.NewChromeBrowser(allocCtx, logger)
		if err != nil {
			return err
		}
		defer browser.Close()

		t1 := time.Now()
		q := models.SearchQuery{PropertyName: scrapeOpts.hotel, Locale: run.Locale, Currency: run.Currency}
		result, err := scraper.New(browser, run, logger).Scrape(ctx, q, window)
		if err != nil {
			return err
		}
		logger.Info("scrape finished", "property", result.Property.Name, "rooms", result.RoomCount(), "elapsed", time.Since(t1).Round(time.Second))

		utils.RenderSummary(os.Stdout, result, utils.BuildSummaryStats(result))

		if err := writeOutput(scrapeOpts.out, result, func(path string) (int, error) {
			return utils.WriteCSV(path, result)
		}); err != nil {
			return err
		}

		if scrapeOpts.user == "" {
			return nil
		}
		store, err := storage.Open(run, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		records := storage.RoomPriceRecords(scrapeOpts.user, scrapeOpts.hotel, t1, result.Days)
		saved, err := store.SaveRoomPrices(ctx, records)
		logger.Info("rows saved", "saved", saved, "total", len(records))
		return err
	},
}
