package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"pricetracker/internal/catalog"
	"pricetracker/internal/components/chrono"
	"pricetracker/internal/components/telemetry"
	"pricetracker/internal/config"
	"pricetracker/internal/fetch"
	"pricetracker/internal/history"
	"pricetracker/internal/retailers"
	"pricetracker/internal/tracker"
	"pricetracker/lib/tracing"
	"pricetracker/lib/util/serviceutil"
)

func initLogging(verbose bool) {
	serviceutil.InitSlog(verbose)
}

// app is everything a command needs, built from the config file and flags.
type app struct {
	cfg     config.Config
	tracker tracker.Tracker
	otel    tracing.Telemetry
	db      *sql.DB
}

func loadApp(ctx context.Context) app {
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	otel, err := tracing.Setup(ctx, "pricetracker", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	err = os.MkdirAll(cfg.DataDir, 0755)
	if err != nil {
		serviceutil.Fatal("failed to create data directory", err)
	}

	c, err := catalog.New(cfg.Products)
	if err != nil {
		serviceutil.Fatal("invalid product catalog", err)
	}

	tel := telemetry.SlogAPI{}
	session, err := fetch.NewSession(cfg.Fetch.Options(), tel)
	if err != nil {
		serviceutil.Fatal("failed to create fetch session", err)
	}
	registry, err := retailers.NewRegistry(cfg.Retailers, session, tel)
	if err != nil {
		serviceutil.Fatal("invalid retailer config", err)
	}

	out := app{cfg: cfg, otel: otel}

	var store history.Store
	switch cfg.Storage {
	case config.StorageSQLite:
		dbcfg := cfg.DatabaseConfig()
		out.db, err = dbcfg.OpenDB(ctx)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		store, err = history.NewSQLStore(ctx, out.db)
		if err != nil {
			serviceutil.Fatal("failed to initialize db", err)
		}
		slog.Debug("using sqlite history", "database", dbcfg.File)
	default:
		store = history.NewCSVStore(cfg.DataDir)
		slog.Debug("using csv history", "dir", cfg.DataDir)
	}

	out.tracker = tracker.New(tracker.Options{
		Catalog:  c,
		Scrapers: registry,
		Store:    store,
		Clock:    chrono.NewStandardImpl(),
		ChartDir: cfg.DataDir,
		Out:      os.Stdout,
		Tel:      tel,
	})
	return out
}

func (a app) Close() {
	if a.db != nil {
		err := a.db.Close()
		if err != nil {
			slog.Warn("failed to close db", "err", err)
		}
	}
	err := a.otel.Shutdown(context.Background())
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}

// productArg is the product named on the command line, or the first product
// of the catalog.
func (a app) productArg(args []string) catalog.Product {
	c := a.tracker.Catalog()
	if len(args) > 0 {
		p, err := c.Lookup(args[0])
		if err != nil {
			serviceutil.Fatal("failed to find product", err)
		}
		return p
	}
	p, ok := c.Default()
	if !ok {
		serviceutil.Fatal("failed to find product", catalog.ErrUnknownProduct)
	}
	return p
}
