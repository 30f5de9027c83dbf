// cmd/forecast/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/agentetemporada/backend-go/internal/cache"
	"github.com/agentetemporada/backend-go/internal/config"
	"github.com/agentetemporada/backend-go/internal/export"
	"github.com/agentetemporada/backend-go/internal/ingest"
	"github.com/agentetemporada/backend-go/internal/service"
	"github.com/agentetemporada/backend-go/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "forecast",
		Usage: "compute the suggested purchase table from a sales ledger and a stock snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "historical",
				Usage:    "path to the historical sales ledger CSV",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "snapshot",
				Usage:    "path to the stock snapshot (CSV or XLSX)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output path; extension selects the format (.csv or .xlsx)",
				Value: "compra_del_dia.xlsx",
			},
			&cli.StringFlag{
				Name:  "anchor",
				Usage: "anchor date YYYY-MM-DD (default: today)",
			},
			&cli.IntFlag{
				Name:  "horizon",
				Usage: "forecast horizon in days (default from config)",
			},
			&cli.StringFlag{
				Name:  "statistic",
				Usage: "period statistic: max or p90",
			},
			&cli.StringFlag{
				Name:  "blend",
				Usage: "blend policy: linear-alpha, dominance-ceiling or additive-uplift",
			},
			&cli.Float64Flag{
				Name:  "alpha",
				Usage: "default blend alpha for linear-alpha",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "multiple",
				Usage: "round purchase quantities up to this multiple",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "output order: name or quantity",
			},
			&cli.StringFlag{
				Name:  "supplier",
				Usage: "only compute rows for this supplier",
			},
			&cli.IntSliceFlag{
				Name:  "years",
				Usage: "restrict historical aggregation to these years",
			},
			&cli.IntSliceFlag{
				Name:  "months",
				Usage: "seasonal model months (1-12) for day-count weighting",
			},
			&cli.BoolFlag{
				Name:  "include-supplier",
				Usage: "include the Proveedor column in the output",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast failed")
	}
}

func run(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))
	log := logger.WithComponent("cli")
	cfg := config.Load()

	historical, err := ingest.ReadHistoricalCSV(c.String("historical"))
	if err != nil {
		return fmt.Errorf("reading historical ledger: %w", err)
	}

	snapshotPath := c.String("snapshot")
	var snapshot *ingest.SnapshotTable
	if strings.EqualFold(filepath.Ext(snapshotPath), ".xlsx") {
		snapshot, err = ingest.ReadSnapshotXLSX(snapshotPath)
	} else {
		snapshot, err = ingest.ReadSnapshotCSV(snapshotPath)
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	req := service.RunRequest{
		Historical:   historical.Records,
		Snapshot:     snapshot.Records,
		CoercedCells: historical.CoercedCells + snapshot.CoercedCells,
		Options:      optionsFromFlags(c),
	}

	svc := service.NewForecastService(cfg.Forecast, cache.NewNoopForecastCache())
	result, err := svc.Run(c.Context, req)
	if err != nil {
		return err
	}

	if result.Warnings.CoercedCells > 0 {
		log.Warn().Int("cells", result.Warnings.CoercedCells).Msg("non-numeric cells coerced to zero")
	}
	if result.Warnings.AmbiguousWindow != nil {
		log.Warn().Msg(result.Warnings.AmbiguousWindow.Message())
	}
	if result.Warnings.EmptyResult {
		log.Info().Msg("no purchases needed, output table is empty")
	}

	outPath := c.String("out")
	exportOpts := export.Options{
		IncludeSupplier: c.Bool("include-supplier"),
		IncludeEAN:      true,
	}
	if strings.EqualFold(filepath.Ext(outPath), ".csv") {
		err = export.WriteCSVFile(outPath, result.Rows, exportOpts)
	} else {
		err = export.WriteXLSXFile(outPath, result.Rows, exportOpts)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	for _, hot := range result.HotProducts {
		log.Info().
			Str("sku", hot.SKU).
			Str("name", hot.Name).
			Float64("current", hot.RecentUnits).
			Float64("prior", hot.PriorRecentUnits).
			Msg("prior-year velocity exceeds current")
	}

	log.Info().
		Int("rows", len(result.Rows)).
		Str("out", outPath).
		Msg("purchase table written")
	return nil
}

func optionsFromFlags(c *cli.Context) service.RunOptions {
	opts := service.RunOptions{
		AnchorDate:     c.String("anchor"),
		Statistic:      c.String("statistic"),
		BlendPolicy:    c.String("blend"),
		SortOrder:      c.String("sort"),
		Supplier:       c.String("supplier"),
		Years:          c.IntSlice("years"),
		SeasonalMonths: c.IntSlice("months"),
	}
	if v := c.Int("horizon"); v > 0 {
		opts.HorizonDays = &v
	}
	if v := c.Float64("alpha"); v >= 0 {
		opts.Alpha = &v
	}
	if v := c.Int("multiple"); v >= 0 {
		opts.RoundingMultiple = &v
	}
	return opts
}
