package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pasar-banyumas/pangan-forecaster/calendar"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PANGAN_"

var (
	ErrInvalidLookback   = errors.New("lookback must be at least 1")
	ErrSiteCount         = errors.New("exactly two market sites are required")
	ErrNoCommodities     = errors.New("at least one commodity is required")
	ErrDuplicateKey      = errors.New("duplicate commodity key")
	ErrEmptyPath         = errors.New("empty path")
	ErrInvalidLogLevel   = errors.New("log level must be one of debug, info, warn, error")
	ErrEmptySiteSettings = errors.New("site name and column are required")
)

// Site is a market whose prices are tracked as one column of every history file.
type Site struct {
	Name   string  `yaml:"name"`
	Column string  `yaml:"column"`
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
}

// Commodity ties a history file to the model that forecasts it and the workbook the merged
// result is saved to. Relative paths resolve against Config.BasePath.
type Commodity struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	HistoryPath string `yaml:"history"`
	OutputPath  string `yaml:"output"`
	ModelPath   string `yaml:"model"`
}

type Config struct {
	BasePath    string             `yaml:"base_path"`
	Lookback    int                `yaml:"lookback"`
	Horizon     int                `yaml:"horizon"`
	Sites       []Site             `yaml:"sites"`
	Commodities []Commodity        `yaml:"commodities"`
	Holidays    []calendar.Holiday `yaml:"holidays"`
	Log         struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Cache struct {
		Models  int `yaml:"models"`
		Results int `yaml:"results"`
	} `yaml:"cache"`
	Dashboard struct {
		OutDir string `yaml:"out_dir"`
	} `yaml:"dashboard"`
	Viewer struct {
		Addr string `yaml:"addr"`
	} `yaml:"viewer"`
}

// Default mirrors the Banyumas deployment: chicken meat and shallots priced at Pasar Manis and
// Pasar Wage, one LSTM model with a lookback of one day.
func Default() *Config {
	cfg := &Config{
		BasePath: "dashboard",
		Lookback: 1,
		Horizon:  93,
		Sites: []Site{
			{Name: "Pasar Manis", Column: "pasar manis", Lat: -7.417745006891739, Lon: 109.22726059533683},
			{Name: "Pasar Wage", Column: "pasar wage", Lat: -7.426524254740998, Lon: 109.24983460883072},
		},
		Commodities: []Commodity{
			{
				Key:         "daging_ayam",
				Name:        "Daging Ayam",
				HistoryPath: "data_daging_ayam_clean23.csv",
				OutputPath:  "data_daging_ayam.xlsx",
				ModelPath:   "models/bestModel_lstm.json",
			},
			{
				Key:         "bawang_merah",
				Name:        "Bawang Merah",
				HistoryPath: "data_bawang_merah_clean23.csv",
				OutputPath:  "data_bawang_merah.xlsx",
				ModelPath:   "models/bestModel_lstm.json",
			},
		},
	}
	cfg.Log.Level = "info"
	cfg.Cache.Models = 8
	cfg.Cache.Results = 16
	cfg.Dashboard.OutDir = "dashboard/site"
	cfg.Viewer.Addr = ":8501"
	return cfg
}

// LoadEnv loads a dotenv file into the process environment without overriding variables that
// are already set. A missing file is not an error unless required is set.
func LoadEnv(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("unable to stat env file, %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("unable to load env file %s, %w", path, err)
	}
	return nil
}

// Load starts from Default, overlays the YAML file at path when it exists, then applies
// PANGAN_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unable to parse config, %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "VIEWER_ADDR"); v != "" {
		c.Viewer.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "DASHBOARD_OUT"); v != "" {
		c.Dashboard.OutDir = v
	}
	if v := os.Getenv(EnvPrefix + "MODEL_PATH"); v != "" {
		for i := range c.Commodities {
			c.Commodities[i].ModelPath = v
		}
	}
	for name, dst := range map[string]*int{
		"LOOKBACK":      &c.Lookback,
		"HORIZON":       &c.Horizon,
		"CACHE_MODELS":  &c.Cache.Models,
		"CACHE_RESULTS": &c.Cache.Results,
	} {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("unable to parse %s%s=%q, %w", EnvPrefix, name, v, err)
		}
		*dst = n
	}
	return nil
}

// Path resolves p against BasePath unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BasePath, p)
}

// Validate checks the settings needed to run a forecast.
func (c *Config) Validate() error {
	if c.Lookback < 1 {
		return fmt.Errorf("got %d, %w", c.Lookback, ErrInvalidLookback)
	}
	if len(c.Sites) != 2 {
		return fmt.Errorf("got %d, %w", len(c.Sites), ErrSiteCount)
	}
	for i, s := range c.Sites {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Column) == "" {
			return fmt.Errorf("site %d, %w", i, ErrEmptySiteSettings)
		}
	}
	if len(c.Commodities) == 0 {
		return ErrNoCommodities
	}

	seen := make(map[string]struct{}, len(c.Commodities))
	for _, cm := range c.Commodities {
		if _, exists := seen[cm.Key]; exists {
			return fmt.Errorf("%q, %w", cm.Key, ErrDuplicateKey)
		}
		seen[cm.Key] = struct{}{}

		for field, p := range map[string]string{
			"key":     cm.Key,
			"history": cm.HistoryPath,
			"output":  cm.OutputPath,
			"model":   cm.ModelPath,
		} {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("commodity %q %s, %w", cm.Key, field, ErrEmptyPath)
			}
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("got %q, %w", c.Log.Level, ErrInvalidLogLevel)
	}
	return nil
}

// Commodity returns the commodity registered under key.
func (c *Config) Commodity(key string) (Commodity, bool) {
	for _, cm := range c.Commodities {
		if cm.Key == key {
			return cm, true
		}
	}
	return Commodity{}, false
}
