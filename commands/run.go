package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"regdoc-scraper/config"
	"regdoc-scraper/db"
	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/notify"
	"regdoc-scraper/scheduler"
	"regdoc-scraper/scraper"
	"regdoc-scraper/sheets"
	"regdoc-scraper/storage"

	"github.com/spf13/cobra"
)

// errAllKeywordsFailed is returned by a one-off run in which no keyword succeeded
var errAllKeywordsFailed = errors.New("every keyword failed")

var runFlags struct {
	configPath string
	site       string
	pages      int
	keywords   []string
	every      time.Duration
	outputDir  string
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "config.yaml", "Path to configuration file")
	f.StringVar(&runFlags.site, "site", "", "Site to scrape (see 'sites')")
	f.IntVar(&runFlags.pages, "pages", 0, "Maximum number of result pages per keyword, 0 for no limit")
	f.StringSliceVar(&runFlags.keywords, "keyword", nil, "Keyword to search for, repeatable")
	f.DurationVar(&runFlags.every, "every", 0, "Repeat the run at this interval until interrupted")
	f.StringVar(&runFlags.outputDir, "output", "", "Output directory")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config config.yaml] [--site echa] [--pages N] [--keyword K ...] [--every 24h]",
	Short: "Searches every keyword and stores the documents and pages found.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, runFlags.configPath)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log := logger.NewLogger(cfg.Logging.Level)
		return run(cmd.Context(), cmd.OutOrStdout(), cfg, log)
	},
}

// loadConfig reads the config file. A missing default file falls back to defaults.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if cmd.Flags().Changed("config") {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		cfg := config.GetDefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return config.LoadConfig(path)
}

// applyRunFlags lets explicitly set flags override the config file
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("site") {
		cfg.Site = runFlags.site
	}
	if flags.Changed("pages") {
		cfg.PageLimit = runFlags.pages
	}
	if flags.Changed("keyword") {
		cfg.Keywords = runFlags.keywords
	}
	if flags.Changed("every") {
		cfg.Schedule.Interval = runFlags.every
	}
	if flags.Changed("output") {
		cfg.OutputDir = runFlags.outputDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, log *logger.Logger) error {
	site, err := scraper.Lookup(cfg.Site, scraper.SiteOptions{StartURL: cfg.StartURL, Timeout: cfg.Timeout()})
	if err != nil {
		return err
	}

	from, to, err := cfg.DateRange()
	if err != nil {
		return err
	}

	downloader := fetcher.NewDownloader(fetcher.DownloaderOptions{
		UserAgent: cfg.Download.UserAgent,
		Timeout:   cfg.DownloadTimeout(),
		Delay:     cfg.Download.Delay,
	}, log)
	store := storage.NewFileStore(cfg.OutputDir, site.Name(), downloader, log)

	opts := scheduler.Options{
		PageLimit: models.PageLimit(cfg.PageLimit),
		DateRange: scraper.DateRange{From: from, To: to},
	}

	if cfg.Database.Enabled {
		database, err := db.NewDB(ctx, cfg.Database.URL, log)
		if err != nil {
			return err
		}
		defer database.Close()
		log.Info("database initialized")
		opts.Tracker = database
		opts.Sinks = append(opts.Sinks, database)
	}

	if cfg.Sheets.Enabled {
		writer, err := sheets.NewWriter(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile, log)
		if err != nil {
			return err
		}
		log.Info("google sheets writer initialized")
		opts.Sinks = append(opts.Sinks, writer)
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			return err
		}
		opts.Notifier = notifier
	}

	newDriver := func() (fetcher.Driver, error) {
		d, err := fetcher.NewRodDriver(fetcher.BrowserOptions{
			Headless:    cfg.Browser.Headless,
			Bin:         cfg.Browser.Bin,
			UserDataDir: cfg.Browser.UserDataDir,
			SettleDelay: cfg.Browser.SettleDelay,
		}, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	newOrchestrator := func(d fetcher.Driver) *scheduler.Orchestrator {
		return scheduler.NewOrchestrator(d, site, store, opts, log)
	}

	sched := scheduler.NewScheduler(cfg.Schedule.Interval, cfg.Keywords, newDriver, newOrchestrator, log)

	if cfg.Schedule.Interval == 0 {
		report, err := sched.RunOnce(ctx)
		if err != nil {
			return err
		}
		printReport(out, report)
		if len(report.Keywords) > 0 && report.Status() == "failed" {
			return errAllKeywordsFailed
		}
		return nil
	}

	log.Info("scheduler started, browser is created on demand for each run", "interval", cfg.Schedule.Interval)
	sched.Start()
	<-ctx.Done()
	sched.Stop()
	return nil
}

// printReport writes a human readable run summary
func printReport(w io.Writer, report models.RunReport) {
	totals := report.Totals()
	fmt.Fprintf(w, "Run %s on %s: %s\n", report.ID, report.Site, report.Status())
	fmt.Fprintln(w, "---")

	for i, k := range report.Keywords {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, k.Keyword)
		fmt.Fprintf(w, "   Result pages: %d\n", k.PagesVisited)
		fmt.Fprintf(w, "   Documents: %d\n", k.Documents)
		fmt.Fprintf(w, "   Pages: %d (%d tables)\n", k.Pages, k.Tables)
		if k.Filtered > 0 {
			fmt.Fprintf(w, "   Filtered by date: %d\n", k.Filtered)
		}
		if k.Failed > 0 {
			fmt.Fprintf(w, "   Failed: %d\n", k.Failed)
		}
		if k.Err != nil {
			fmt.Fprintf(w, "   Error: %v\n", k.Err)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d documents, %d pages\n", totals.Documents, totals.Pages)
}
