package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/Spok95/order-planner/internal/config"
	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/planning"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
	"github.com/Spok95/order-planner/internal/infra/db"
	"github.com/Spok95/order-planner/internal/infra/logger"
	"github.com/Spok95/order-planner/internal/infra/notify"
)

const migrationsDir = "migrations"

// env: всё, что нужно командам после подключения к базе.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	pool   *pgxpool.Pool
	notify *notify.Notifier

	catalog   *catalog.Repo
	sales     *sales.Repo
	suppliers *suppliers.Repo
	inventory *inventory.Repo

	orders *planning.Service
	prices *pricechanges.Service
}

func loadConfig(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logger.New(cfg.App.Env), nil
}

func connect(c *cli.Context) (*env, error) {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	pool, err := db.Connect(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	log.Debug("db connected")

	from, to, err := cfg.ReliableWindow()
	if err != nil {
		pool.Close()
		return nil, err
	}
	n, err := notify.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	th := catalog.Thresholds{
		POSInvoice:    cfg.Matching.POSInvoiceThreshold,
		Cost:          cfg.Matching.CostThreshold,
		Supplier:      cfg.Matching.SupplierThreshold,
		Carton:        cfg.Planner.CartonMatchThreshold,
		MaxCandidates: cfg.Matching.MaxCandidates,
	}
	calc := inventory.Calculator{SafetyDays: cfg.Planner.SafetyDays}

	e := &env{
		cfg:       cfg,
		log:       log,
		pool:      pool,
		notify:    n,
		catalog:   catalog.NewRepo(pool),
		sales:     sales.NewRepo(pool),
		suppliers: suppliers.NewRepo(pool),
		inventory: inventory.NewRepo(pool),
	}
	e.orders = planning.NewService(
		e.catalog, e.sales, e.suppliers, e.inventory, planning.NewRepo(pool),
		planning.Planner{
			MonthlyBudget:      cfg.Planner.MonthlyBudget,
			MinOrderValue:      cfg.Planner.MinOrderValue,
			PriceTolerance:     cfg.Planner.PriceTolerance,
			ExcludedCategories: cfg.Planner.ExcludedCategories,
			Reorder:            calc,
		},
		planning.Recommender{Reorder: calc, TopProducts: cfg.Planner.TopProducts},
		planning.Options{
			SalesWindowDays: cfg.History.SalesWindowDays,
			Location:        cfg.Location(),
			ReliableFrom:    from,
			ReliableTo:      to,
			Thresholds:      th,
		},
		log,
	)
	e.prices = pricechanges.NewService(e.catalog, pricechanges.NewRepo(pool), cfg.Planner.PriceTolerance, th.Cost, log)
	return e, nil
}

// withEnv открывает окружение на время одной команды.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := connect(c)
		if err != nil {
			return err
		}
		defer e.pool.Close()
		return fn(c, e)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "planner",
		Usage: "weekly supplier orders from sales history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/example.yaml",
				EnvVars: []string{"APP_CONFIG"},
			},
		},
		Commands: commands(),
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
