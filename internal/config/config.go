package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Assets      []string         `yaml:"assets"`
	Days        int              `yaml:"days"`
	LogLevel    string           `yaml:"log_level"`
	MetricsAddr string           `yaml:"metrics_addr"`
	Indicators  Indicators       `yaml:"indicators"`
	Risk        Risk             `yaml:"risk"`
	Portfolio   Portfolio        `yaml:"portfolio"`
	Output      Output           `yaml:"output"`
	HistoryRef  HistoryReference `yaml:"history"`
	Orders      []Order          `yaml:"orders"`
}

func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	d := yaml.NewDecoder(r)
	err := d.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Default() *Config {
	return &Config{
		Days:       90,
		LogLevel:   "info",
		Indicators: DefaultIndicators(),
		Risk: Risk{
			Tolerance: "medium",
		},
		Portfolio: Portfolio{
			InitialBalance: 10000,
		},
	}
}

func (c *Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.Portfolio.InitialBalance < 0 {
		return fmt.Errorf("initial balance cannot be negative, got %v", c.Portfolio.InitialBalance)
	}

	i := c.Indicators
	if i.RSIPeriod <= 0 || i.MACD.Fast <= 0 || i.MACD.Slow <= 0 || i.MACD.Signal <= 0 || i.Bollinger.Period <= 0 {
		return errors.New("indicator periods must be positive")
	}
	if i.MACD.Fast >= i.MACD.Slow {
		return fmt.Errorf("macd fast period (%d) must be less than slow period (%d)", i.MACD.Fast, i.MACD.Slow)
	}
	if i.Bollinger.StdDev < 0 {
		return fmt.Errorf("bollinger stddev cannot be negative, got %v", i.Bollinger.StdDev)
	}

	return nil
}

// SlogLevel maps the configured log level name onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// indicator configs

type Indicators struct {
	RSIPeriod int       `yaml:"rsi_period"`
	MACD      MACD      `yaml:"macd"`
	Bollinger Bollinger `yaml:"bollinger"`
}

type MACD struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

type Bollinger struct {
	Period int     `yaml:"period"`
	StdDev float64 `yaml:"stddev"`
}

func DefaultIndicators() Indicators {
	return Indicators{
		RSIPeriod: 14,
		MACD:      MACD{Fast: 12, Slow: 26, Signal: 9},
		Bollinger: Bollinger{Period: 20, StdDev: 2},
	}
}

type Risk struct {
	Tolerance string  `yaml:"tolerance"`
	Capital   float64 `yaml:"capital"`
}

type Portfolio struct {
	InitialBalance float64 `yaml:"initial_balance"`
	Report         string  `yaml:"report"`
}

type Output struct {
	PlotDir string `yaml:"plot_dir"`
	DumpDir string `yaml:"dump_dir"`
}

// Order is one step of a simulator script.
type Order struct {
	Action   string    `yaml:"action"`
	Asset    string    `yaml:"asset"`
	Quantity string    `yaml:"quantity"`
	Side     string    `yaml:"side"`
	Limit    string    `yaml:"limit"`
	Time     time.Time `yaml:"time"`
}

// history provider configs

type HistoryReference struct {
	Provider HistoryProvider
}

type HistoryProvider interface{}

type CSV struct {
	Data map[string]string `yaml:"data"`
}

type Alpaca struct {
	BaseUrl string `yaml:"base_url"`
	ApiKey  string `yaml:"api_key"`
	Secret  string `yaml:"secret"`
	Quote   string `yaml:"quote"`
}

func (w *HistoryReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid history yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "csv":
		var csv CSV
		if err := value.Content[1].Decode(&csv); err != nil {
			return fmt.Errorf("failed parsing csv history config: %w", err)
		}
		w.Provider = csv
	case "alpaca":
		var alpaca Alpaca
		if err := value.Content[1].Decode(&alpaca); err != nil {
			return fmt.Errorf("failed parsing alpaca history config: %w", err)
		}
		w.Provider = alpaca
	default:
		return fmt.Errorf("unknown history provider: %s", key)
	}

	return nil
}

// ApplyEnv fills empty Alpaca credentials from ALPACA_API_KEY and
// ALPACA_API_SECRET.
func (c *Config) ApplyEnv(getenv func(string) string) {
	a, ok := c.HistoryRef.Provider.(Alpaca)
	if !ok {
		return
	}

	if a.ApiKey == "" {
		a.ApiKey = getenv("ALPACA_API_KEY")
	}
	if a.Secret == "" {
		a.Secret = getenv("ALPACA_API_SECRET")
	}
	c.HistoryRef.Provider = a
}
