package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Spok95/order-planner/internal/domain/planning"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/infra/db"
	httpx "github.com/Spok95/order-planner/internal/infra/http"
	"github.com/Spok95/order-planner/internal/infra/metrics"
	"github.com/Spok95/order-planner/internal/infra/notify"
	"github.com/Spok95/order-planner/internal/infra/xlsx"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "apply database migrations",
			Action: func(c *cli.Context) error {
				cfg, log, err := loadConfig(c)
				if err != nil {
					return err
				}
				if err := db.Migrate(cfg.Postgres.DSN, migrationsDir); err != nil {
					log.Error("migrations failed", "err", err)
					return err
				}
				log.Info("migrations applied")
				return nil
			},
		},
		{
			Name:      "import-sales",
			Usage:     "load POS transactions from an xlsx export",
			ArgsUsage: "<file.xlsx>",
			Action:    withEnv(importSales),
		},
		{
			Name:      "import-orders",
			Usage:     "load supplier payments from an xlsx sheet",
			ArgsUsage: "<file.xlsx>",
			Action:    withEnv(importOrders),
		},
		{
			Name:      "import-invoices",
			Usage:     "load supplier invoice lines from an xlsx sheet",
			ArgsUsage: "<file.xlsx>",
			Action:    withEnv(importInvoices),
		},
		{
			Name:      "import-costs",
			Usage:     "load catalog unit costs from an xlsx sheet",
			ArgsUsage: "<file.xlsx>",
			Action:    withEnv(importCosts),
		},
		{
			Name:      "set-stock",
			Usage:     "set the on-hand quantity of a product",
			ArgsUsage: "<product> <qty>",
			Action:    withEnv(setStock),
		},
		{
			Name:  "forecast",
			Usage: "recompute demand forecasts and supplier cadences",
			Flags: []cli.Flag{&cli.IntFlag{Name: "top", Value: 20, Usage: "products to print"}},
			Action: withEnv(func(c *cli.Context, e *env) error {
				var forecasts map[string]sales.Forecast
				err := metrics.Observe("forecast", func() error {
					var err error
					forecasts, _, err = e.orders.Refresh(c.Context)
					return err
				})
				if err != nil {
					return err
				}
				for i, f := range sales.Ranked(forecasts) {
					if i == c.Int("top") {
						break
					}
					fmt.Fprintf(c.App.Writer, "%-40s total=%-8.1f avg/day=%-6.2f week=%-6.1f %s\n",
						f.ProductName, f.TotalQty, f.AvgDailyQty, f.WeeklyQty, f.Trend)
				}
				return nil
			}),
		},
		{
			Name:  "plan",
			Usage: "generate weekly orders for a month",
			Flags: []cli.Flag{&cli.StringFlag{Name: "month", Usage: "YYYY-MM", Required: true}},
			Action: withEnv(func(c *cli.Context, e *env) error {
				var res planning.Result
				err := metrics.Observe("plan", func() error {
					var err error
					res, err = e.orders.Generate(c.Context, c.String("month"))
					return err
				})
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := xlsx.WritePlan(&buf, res.Plan.Orders); err != nil {
					e.log.Error("plan export failed", "err", err)
				}
				e.notify.PlanReady(res.Plan, buf.Bytes())
				fmt.Fprintln(c.App.Writer, notify.FormatPlan(res.Plan))
				return nil
			}),
		},
		{
			Name:  "prices",
			Usage: "rebuild the price change list from invoices",
			Action: withEnv(func(c *cli.Context, e *env) error {
				var changes []pricechanges.Change
				err := metrics.Observe("prices", func() error {
					var err error
					changes, _, err = e.prices.Refresh(c.Context)
					return err
				})
				if err != nil {
					return err
				}
				e.notify.PriceChanges(changes)
				fmt.Fprintln(c.App.Writer, notify.FormatPriceChanges(changes))
				return nil
			}),
		},
		{
			Name:  "recommend",
			Usage: "daily reorder recommendations",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, today by default"},
				&cli.IntFlag{Name: "days", Value: 1, Usage: "schedule length"},
			},
			Action: withEnv(recommend),
		},
		{
			Name:  "export",
			Usage: "write a month's weekly orders to xlsx",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "month", Usage: "YYYY-MM", Required: true},
				&cli.StringFlag{Name: "out", Usage: "output file"},
			},
			Action: withEnv(export),
		},
		{
			Name:   "serve",
			Usage:  "run the dashboard API with /health and /metrics",
			Action: withEnv(serve),
		},
	}
}

func readFile(c *cli.Context) (*os.File, error) {
	path := c.Args().First()
	if path == "" {
		return nil, cli.Exit("file argument is required", 2)
	}
	return os.Open(path)
}

func logRowErrors(e *env, file string, errs []xlsx.RowError) {
	for _, re := range errs {
		e.log.Warn("row skipped", "file", file, "row", re.Row, "err", re.Err)
	}
}

func importSales(c *cli.Context, e *env) error {
	f, err := readFile(c)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	txs, rowErrs, err := xlsx.ReadSales(f, e.cfg.Location())
	if err != nil {
		return err
	}
	logRowErrors(e, f.Name(), rowErrs)
	n, err := e.sales.InsertTransactions(c.Context, txs)
	if err != nil {
		return err
	}
	e.log.Info("sales imported", "file", f.Name(), "rows", n, "skipped", len(rowErrs))
	return nil
}

func importOrders(c *cli.Context, e *env) error {
	f, err := readFile(c)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	orders, rowErrs, err := xlsx.ReadOrders(f)
	if err != nil {
		return err
	}
	logRowErrors(e, f.Name(), rowErrs)
	n, err := e.suppliers.InsertOrders(c.Context, orders)
	if err != nil {
		return err
	}
	e.log.Info("supplier orders imported", "file", f.Name(), "rows", n, "skipped", len(rowErrs))
	return nil
}

func importInvoices(c *cli.Context, e *env) error {
	f, err := readFile(c)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	lines, rowErrs, err := xlsx.ReadInvoices(f)
	if err != nil {
		return err
	}
	logRowErrors(e, f.Name(), rowErrs)
	n, err := e.catalog.InsertInvoiceLines(c.Context, lines)
	if err != nil {
		return err
	}
	e.log.Info("invoice lines imported", "file", f.Name(), "rows", n, "skipped", len(rowErrs))
	return nil
}

func importCosts(c *cli.Context, e *env) error {
	f, err := readFile(c)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	costs, rowErrs, err := xlsx.ReadCatalogCosts(f)
	if err != nil {
		return err
	}
	logRowErrors(e, f.Name(), rowErrs)
	for _, cost := range costs {
		if err := e.catalog.UpsertCatalogCost(c.Context, cost); err != nil {
			return fmt.Errorf("upsert %q: %w", cost.ProductName, err)
		}
	}
	e.log.Info("catalog costs imported", "file", f.Name(), "rows", len(costs), "skipped", len(rowErrs))
	return nil
}

func setStock(c *cli.Context, e *env) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: set-stock <product> <qty>", 2)
	}
	qty, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil || qty < 0 {
		return cli.Exit("qty must be a non-negative number", 2)
	}
	name := c.Args().Get(0)
	if err := e.inventory.SetStock(c.Context, name, qty); err != nil {
		return err
	}
	e.log.Info("stock updated", "product", name, "qty", qty)
	return nil
}

func recommend(c *cli.Context, e *env) error {
	loc := e.cfg.Location()
	date := time.Now().In(loc)
	if s := c.String("date"); s != "" {
		d, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return cli.Exit("date must be YYYY-MM-DD", 2)
		}
		date = d
	}

	var (
		schedule []planning.DaySchedule
		daily    []planning.SupplierRecommendation
	)
	err := metrics.Observe("recommend", func() error {
		var err error
		schedule, daily, err = e.orders.Recommend(c.Context, date, c.Int("days"))
		return err
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, notify.FormatRecommendations(daily))
	for _, r := range daily {
		if !r.ShouldOrderToday {
			continue
		}
		fmt.Fprintf(w, "\n%s (%s, every %.1f days)\n", r.Supplier, r.Cadence.Frequency, r.Cadence.AvgDaysBetween)
		for _, l := range r.Lines {
			fmt.Fprintf(w, "  %-40s qty=%-4d stock=%-6.1f need=%-6.1f %s\n",
				l.ProductName, l.Quantity, l.CurrentStock, l.PredictedNeed, l.Urgency)
		}
	}
	for _, d := range schedule {
		fmt.Fprintf(w, "%s: suppliers=%d critical=%d high=%d\n",
			d.Date.Format(time.DateOnly), len(d.Suppliers), d.Critical, d.High)
	}
	e.notify.Recommendations(daily)
	return nil
}

func export(c *cli.Context, e *env) error {
	month, err := planning.ParseMonth(c.String("month"))
	if err != nil {
		return err
	}
	orders, err := e.orders.ListOrders(c.Context, planning.Filter{Month: &month})
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("orders_%s.xlsx", month.Format("2006_01"))
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := xlsx.WritePlan(f, orders); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.log.Info("orders exported", "month", month.Format("2006-01"), "orders", len(orders), "file", out)
	return nil
}

func serve(c *cli.Context, e *env) error {
	api := httpx.NewHandler(e.log, e.orders, e.prices)
	srv := httpx.New(e.cfg.HTTP.Addr, e.cfg.Metrics.Enabled, api)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("http server error", "err", err)
		}
	}()
	e.log.Info("HTTP server started", "addr", e.cfg.HTTP.Addr)

	<-c.Context.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	e.log.Info("graceful shutdown complete")
	return nil
}
