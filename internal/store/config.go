package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks every configuration problem; it is fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

type Config struct {
	Mode     string        `yaml:"mode" default:"DRY_RUN" validate:"oneof=DRY_RUN LIVE"`
	Symbol   string        `yaml:"symbol" default:"XOM" validate:"required"`
	Exchange string        `yaml:"exchange" default:"NSE" validate:"required"`
	Interval time.Duration `yaml:"interval" default:"5m" validate:"gt=0"`

	Source     SourceConfig     `yaml:"source"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Risk       RiskConfig       `yaml:"risk"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Market     MarketConfig     `yaml:"market"`
	TradeLog   TradeLogConfig   `yaml:"tradelog"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Paper      PaperConfig      `yaml:"paper"`
}

type SourceConfig struct {
	BaseURL   string        `yaml:"base_url" default:"http://127.0.0.1:8001" validate:"required,url"`
	Limit     int           `yaml:"limit" default:"20" validate:"gte=1,lte=500"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	StripHTML bool          `yaml:"strip_html" default:"true"`
	// Sentiment asks the feed for one label only; empty fetches everything.
	Sentiment string `yaml:"sentiment" validate:"omitempty,oneof=positive negative neutral"`
}

type ScoringConfig struct {
	HalfLifeHours   float64 `yaml:"half_life_hours" default:"24" validate:"gt=0"`
	PreferPreScored bool    `yaml:"prefer_pre_scored" default:"true"`
}

type ThresholdConfig struct {
	StrongBuy  float64 `yaml:"strong_buy" default:"0.3" validate:"gte=-1,lte=1"`
	Buy        float64 `yaml:"buy" default:"0.1" validate:"gte=-1,lte=1"`
	Sell       float64 `yaml:"sell" default:"-0.1" validate:"gte=-1,lte=1"`
	StrongSell float64 `yaml:"strong_sell" default:"-0.3" validate:"gte=-1,lte=1"`
}

type RiskConfig struct {
	MaxPosition    int     `yaml:"max_position" default:"100" validate:"gt=0"`
	PerSignal      int     `yaml:"per_signal" default:"10" validate:"gt=0,ltefield=MaxPosition"`
	MaxDailyTrades int     `yaml:"max_daily_trades" default:"10" validate:"gt=0"`
	StopLossPct    float64 `yaml:"stop_loss_pct" default:"0.02" validate:"gt=0,lt=1"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" default:"0.03" validate:"gt=0"`
}

type ExecutionConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" default:"500ms" validate:"gt=0"`
	FillTimeout     time.Duration `yaml:"fill_timeout" default:"30s" validate:"gt=0"`
	CancelOnTimeout bool          `yaml:"cancel_on_timeout" default:"true"`
}

type MarketConfig struct {
	Calendar string `yaml:"calendar" default:"ALWAYS_OPEN" validate:"oneof=ALWAYS_OPEN SESSION"`
	Timezone string `yaml:"timezone" default:"America/New_York" validate:"required"`
	Open     string `yaml:"open" default:"09:30"`
	Close    string `yaml:"close" default:"16:00"`
}

type TradeLogConfig struct {
	Dir           string `yaml:"dir" default:"logs" validate:"required"`
	HistoryFile   string `yaml:"history_file" default:"trade_history.csv" validate:"required"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	EOD           bool   `yaml:"eod" default:"true"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type PaperConfig struct {
	StartPrice     float64 `yaml:"start_price" default:"100" validate:"gt=0"`
	Volatility     float64 `yaml:"volatility" default:"0.002" validate:"gte=0,lt=1"`
	FillAfterPolls int     `yaml:"fill_after_polls" default:"1" validate:"gte=0"`
	Seed           int64   `yaml:"seed"`
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	t := c.Thresholds
	if !(t.StrongBuy > t.Buy && t.Buy > t.Sell && t.Sell > t.StrongSell) {
		return fmt.Errorf("%w: thresholds must satisfy strong_buy > buy > sell > strong_sell, got %.3f/%.3f/%.3f/%.3f",
			ErrInvalidConfig, t.StrongBuy, t.Buy, t.Sell, t.StrongSell)
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("%w: market.timezone %q: %v", ErrInvalidConfig, c.Market.Timezone, err)
	}
	if c.Market.Calendar == "SESSION" {
		open, err := ParseClock(c.Market.Open)
		if err != nil {
			return fmt.Errorf("%w: market.open: %v", ErrInvalidConfig, err)
		}
		cl, err := ParseClock(c.Market.Close)
		if err != nil {
			return fmt.Errorf("%w: market.close: %v", ErrInvalidConfig, err)
		}
		if cl <= open {
			return fmt.Errorf("%w: market.close %s must be after market.open %s", ErrInvalidConfig, c.Market.Close, c.Market.Open)
		}
	}

	if c.Execution.PollInterval > c.Execution.FillTimeout {
		return fmt.Errorf("%w: execution.poll_interval %s exceeds fill_timeout %s",
			ErrInvalidConfig, c.Execution.PollInterval, c.Execution.FillTimeout)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Location returns the market timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("%w: defaults: %v", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// LoadConfig reads path; a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
		}
		b = nil
	}
	return Parse(b)
}
