package uniswap_v3_hedge

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	DBFile string `mapstructure:"db_file"`

	Pool           string `mapstructure:"pool"`
	Token0Decimals uint8  `mapstructure:"token0_decimals"`
	Token1Decimals uint8  `mapstructure:"token1_decimals"`
	FeeTier        uint32 `mapstructure:"fee_tier"`
	From           int64  `mapstructure:"from"`
	To             int64  `mapstructure:"to"`

	Hysteresis int     `mapstructure:"hysteresis"`
	Slippage   float64 `mapstructure:"slippage"`
	SwapFee    float64 `mapstructure:"swap_fee"`
	Capital    float64 `mapstructure:"capital"`

	WindowLength time.Duration `mapstructure:"window_length"`
	RollingTime  time.Duration `mapstructure:"rolling_time"`
	Scenarios    []Scenario    `mapstructure:"-"`

	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

const (
	DefaultDBFile       = "swaps.db"
	DefaultHysteresis   = 2
	DefaultWindowLength = 360 * time.Hour
	DefaultRollingTime  = 24 * time.Hour
	DefaultScenarios    = "2,5,10"
	EnvPrefix           = "HEDGE"
)

// LoadConfig merges defaults, the optional config file at path, a .env file in
// the working directory, HEDGE_* environment variables and flags, in rising
// priority.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	defaults := map[string]interface{}{
		"db_file":         DefaultDBFile,
		"pool":            "",
		"token0_decimals": 18,
		"token1_decimals": 18,
		"fee_tier":        uint32(FeeAmountMedium),
		"from":            0,
		"to":              0,
		"hysteresis":      DefaultHysteresis,
		"slippage":        0.0,
		"swap_fee":        0.0,
		"capital":         DEFAULT_CAPITAL,
		"window_length":   DefaultWindowLength,
		"rolling_time":    DefaultRollingTime,
		"scenarios":       DefaultScenarios,
		"log_level":       "info",
		"log_json":        false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	scenarios, err := scenariosFrom(v)
	if err != nil {
		return nil, err
	}
	cfg.Scenarios = scenarios
	return &cfg, cfg.Validate()
}

// scenariosFrom accepts a list of {name, hysteresis} from a config file or a
// comma separated string such as "2,5,10" or "tight=2,wide=10".
func scenariosFrom(v *viper.Viper) ([]Scenario, error) {
	switch raw := v.Get("scenarios").(type) {
	case string:
		return ParseScenarios(raw)
	case []string:
		return ParseScenarios(strings.Join(raw, ","))
	default:
		var out []Scenario
		if err := v.UnmarshalKey("scenarios", &out); err != nil {
			return nil, fmt.Errorf("%w: scenarios: %s", ErrInvalidSettings, err)
		}
		return out, nil
	}
}

func ParseScenarios(raw string) ([]Scenario, error) {
	var out []Scenario
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, named := strings.Cut(part, "=")
		if !named {
			value = name
		}
		h, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %q", ErrInvalidSettings, part)
		}
		if !named {
			name = fmt.Sprintf("H=%d", h)
		}
		out = append(out, Scenario{Name: strings.TrimSpace(name), Hysteresis: h})
	}
	return out, nil
}

func (c *Config) Validate() error {
	if c.DBFile == "" {
		return fmt.Errorf("%w: missing db_file", ErrInvalidSettings)
	}
	if c.Hysteresis < 1 {
		return fmt.Errorf("%w: invalid hysteresis %d", ErrInvalidSettings, c.Hysteresis)
	}
	if c.Slippage < 0 {
		return fmt.Errorf("%w: invalid slippage %v", ErrInvalidSettings, c.Slippage)
	}
	if c.SwapFee < 0 {
		return fmt.Errorf("%w: invalid swap_fee %v", ErrInvalidSettings, c.SwapFee)
	}
	if c.Capital <= 0 {
		return fmt.Errorf("%w: invalid capital %v", ErrInvalidSettings, c.Capital)
	}
	if c.WindowLength <= 0 || c.RollingTime <= 0 {
		return fmt.Errorf("%w: invalid window_length %s or rolling_time %s", ErrInvalidSettings, c.WindowLength, c.RollingTime)
	}
	if c.From < 0 || (c.To != 0 && c.To < c.From) {
		return fmt.Errorf("%w: invalid range %d - %d", ErrInvalidSettings, c.From, c.To)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, err)
	}
	return nil
}

func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func (c *Config) Window() Window {
	return Window{Pool: c.Pool, From: c.From, To: c.To}
}

func (c *Config) PoolConfig() (*PoolConfig, error) {
	return NewPoolConfig(c.Pool, "", "", c.Token0Decimals, c.Token1Decimals, FeeAmount(c.FeeTier))
}

func (c *Config) HedgeSettings() HedgeSettings {
	return HedgeSettings{
		Hysteresis: c.Hysteresis,
		Slippage:   c.Slippage,
		SwapFee:    c.SwapFee,
		Capital:    c.Capital,
	}
}

// BandSettings reads the hysteresis as a percent of price.
func (c *Config) BandSettings() BandSettings {
	return BandSettings{
		Hysteresis: float64(c.Hysteresis),
		Slippage:   c.Slippage,
		SwapFee:    c.SwapFee,
	}
}

func (c *Config) RollingSettings() RollingSettings {
	return RollingSettings{
		WindowLength: c.WindowLength,
		RollingTime:  c.RollingTime,
		Scenarios:    c.Scenarios,
		Slippage:     c.Slippage,
		SwapFee:      c.SwapFee,
		Capital:      c.Capital,
	}
}
