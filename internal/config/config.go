package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // часовые пояса не зависят от образа

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Planner struct {
		MonthlyBudget        float64  `mapstructure:"monthly_budget"`
		MinOrderValue        float64  `mapstructure:"min_order_value"`
		PriceTolerance       float64  `mapstructure:"price_tolerance"`
		SafetyDays           int      `mapstructure:"safety_days"`
		CartonMatchThreshold float64  `mapstructure:"carton_match_threshold"`
		ExcludedCategories   []string `mapstructure:"excluded_categories"`
		TopProducts          int      `mapstructure:"top_products"`
	} `mapstructure:"planner"`

	History struct {
		SalesWindowDays int    `mapstructure:"sales_window_days"`
		ReliableFrom    string `mapstructure:"reliable_from"` // YYYY-MM-DD
		ReliableTo      string `mapstructure:"reliable_to"`
	} `mapstructure:"history"`

	Matching struct {
		POSInvoiceThreshold float64 `mapstructure:"pos_invoice_threshold"`
		CostThreshold       float64 `mapstructure:"cost_threshold"`
		SupplierThreshold   float64 `mapstructure:"supplier_threshold"`
		MaxCandidates       int     `mapstructure:"max_candidates"`
	} `mapstructure:"matching"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Singapore")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("planner.monthly_budget", 12000.0)
	v.SetDefault("planner.min_order_value", 10.0)
	v.SetDefault("planner.price_tolerance", 0.10)
	v.SetDefault("planner.safety_days", 3)
	v.SetDefault("planner.carton_match_threshold", 0.70)
	v.SetDefault("planner.excluded_categories", []string{})
	v.SetDefault("planner.top_products", 100)

	v.SetDefault("history.sales_window_days", 90)
	v.SetDefault("history.reliable_from", "2024-12-01")
	v.SetDefault("history.reliable_to", "2025-06-30")

	v.SetDefault("matching.pos_invoice_threshold", 0.70)
	v.SetDefault("matching.cost_threshold", 0.80)
	v.SetDefault("matching.supplier_threshold", 0.50)
	v.SetDefault("matching.max_candidates", 3)
}

func Load(path string) (Config, error) {
	// .env не обязателен
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	// APP_PLANNER_MONTHLY_BUDGET -> planner.monthly_budget
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Planner.MonthlyBudget <= 0 {
		errs = append(errs, errors.New("planner.monthly_budget must be > 0"))
	}
	if c.Planner.MinOrderValue < 0 {
		errs = append(errs, errors.New("planner.min_order_value must be >= 0"))
	}
	if c.Planner.PriceTolerance < 0 {
		errs = append(errs, errors.New("planner.price_tolerance must be >= 0"))
	}
	if c.Planner.SafetyDays < 0 {
		errs = append(errs, errors.New("planner.safety_days must be >= 0"))
	}
	if c.History.SalesWindowDays <= 0 {
		errs = append(errs, errors.New("history.sales_window_days must be > 0"))
	}
	for name, t := range map[string]float64{
		"matching.pos_invoice_threshold": c.Matching.POSInvoiceThreshold,
		"matching.cost_threshold":        c.Matching.CostThreshold,
		"matching.supplier_threshold":    c.Matching.SupplierThreshold,
		"planner.carton_match_threshold": c.Planner.CartonMatchThreshold,
	} {
		if t <= 0 || t > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0,1], got %v", name, t))
		}
	}
	if c.App.Timezone != "" {
		if _, err := time.LoadLocation(c.App.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("app.timezone: %w", err))
		}
	}
	from, to, err := c.ReliableWindow()
	if err != nil {
		errs = append(errs, err)
	} else if from.After(to) {
		errs = append(errs, errors.New("history.reliable_from is after history.reliable_to"))
	}
	return errors.Join(errs...)
}

// ReliableWindow: границы проверенной истории заказов поставщикам (включительно).
func (c Config) ReliableWindow() (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, c.History.ReliableFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("history.reliable_from: %w", err)
	}
	to, err := time.Parse(time.DateOnly, c.History.ReliableTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("history.reliable_to: %w", err)
	}
	return from, to, nil
}

// Location: часовой пояс выгрузок; значение уже проверено в Validate.
func (c Config) Location() *time.Location {
	if c.App.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
