package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

// Source points at one input table. Exactly one of Path or URL is set.
type Source struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

type Data struct {
	Indicators Source        `yaml:"indicators"`
	Impacts    Source        `yaml:"impacts"`
	Forecasts  Source        `yaml:"forecasts"`
	Timeout    time.Duration `yaml:"timeout"` // for url sources
	UserAgent  string        `yaml:"user_agent"`
	// Values outside [0,100] are rejected at load unless this is set.
	AllowOutOfRange bool `yaml:"allow_out_of_range"`
}

type KPI struct {
	Code   string `yaml:"code"`
	Label  string `yaml:"label"`
	Gender string `yaml:"gender"` // optional
}

// Dashboard zero values mean "use the default"; a zero target or
// top_events cannot be configured.
type Dashboard struct {
	KPIs              []KPI    `yaml:"kpis"`
	TrendIndicators   []string `yaml:"trend_indicators"`
	TopEvents         int      `yaml:"top_events"`
	Target            float64  `yaml:"target"` // percent, projection view
	ForecastIndicator string   `yaml:"forecast_indicator"`
}

type Charts struct {
	Width   float64       `yaml:"width"`  // inches
	Height  float64       `yaml:"height"` // inches
	MaxKeys int           `yaml:"max_keys"`
	TTL     time.Duration `yaml:"ttl"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Data      Data      `yaml:"data"`
	Dashboard Dashboard `yaml:"dashboard"`
	Charts    Charts    `yaml:"charts"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8501"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Data.Indicators == (Source{}) {
		c.Data.Indicators.Path = "data/processed/ethiopia_fi_enriched.csv"
	}
	if c.Data.Impacts == (Source{}) {
		c.Data.Impacts.Path = "data/processed/impact_links_enriched.csv"
	}
	if c.Data.Forecasts == (Source{}) {
		c.Data.Forecasts.Path = "data/processed/ACC_OWNERSHIP_forecast_2025_2027.csv"
	}
	if c.Data.Timeout == 0 {
		c.Data.Timeout = 10 * time.Second
	}
	if len(c.Dashboard.KPIs) == 0 {
		c.Dashboard.KPIs = []KPI{
			{Code: "ACC_OWNERSHIP", Label: "Account Ownership (Access)"},
			{Code: "USG_DIGITAL_PAYMENT", Label: "Digital Payment Usage"},
		}
	}
	for i := range c.Dashboard.KPIs {
		if c.Dashboard.KPIs[i].Label == "" {
			c.Dashboard.KPIs[i].Label = c.Dashboard.KPIs[i].Code
		}
	}
	if len(c.Dashboard.TrendIndicators) == 0 {
		c.Dashboard.TrendIndicators = []string{"ACC_OWNERSHIP", "USG_DIGITAL_PAYMENT"}
	}
	if c.Dashboard.TopEvents == 0 {
		c.Dashboard.TopEvents = 5
	}
	if c.Dashboard.Target == 0 {
		c.Dashboard.Target = 60
	}
	if c.Dashboard.ForecastIndicator == "" {
		c.Dashboard.ForecastIndicator = "ACC_OWNERSHIP"
	}
	if c.Charts.Width == 0 {
		c.Charts.Width = 10
	}
	if c.Charts.Height == 0 {
		c.Charts.Height = 4
	}
	if c.Charts.MaxKeys == 0 {
		c.Charts.MaxKeys = 256
	}
	if c.Charts.TTL == 0 {
		c.Charts.TTL = time.Hour
	}
}

func (c *Config) Validate() error {
	for name, s := range map[string]Source{
		"indicators": c.Data.Indicators,
		"impacts":    c.Data.Impacts,
		"forecasts":  c.Data.Forecasts,
	} {
		if s.Path != "" && s.URL != "" {
			return fmt.Errorf("data.%s: set path or url, not both", name)
		}
		if s.URL != "" && !strings.HasPrefix(s.URL, "http") {
			return fmt.Errorf("data.%s: unsupported url %q", name, s.URL)
		}
	}
	if c.Dashboard.TopEvents < 0 {
		return errors.New("dashboard.top_events must be positive")
	}
	for _, k := range c.Dashboard.KPIs {
		if strings.TrimSpace(k.Code) == "" {
			return errors.New("dashboard.kpis: code is required")
		}
	}
	if c.Charts.Width < 0 || c.Charts.Height < 0 {
		return errors.New("charts: width and height must be positive")
	}
	return nil
}
