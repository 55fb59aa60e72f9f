// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Suite() SuiteConfig
	SMS() SMSConfig
	Fixtures() FixturesConfig
	Locators() map[string]LocatorConfig
	Report() ReportConfig
	Database() DatabaseConfig

	// Setters used by CLI flags.
	SetBrowserHeadless(bool)
	SetReportFormat(string)
	SetReportOutput(string)
}

// Config holds the entire application configuration.
// Fields are exported so viper can unmarshal into them; callers should go through the Interface getters.
type Config struct {
	LoggerCfg   LoggerConfig             `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig            `mapstructure:"browser" yaml:"browser"`
	WaitCfg     WaitConfig               `mapstructure:"wait" yaml:"wait"`
	SuiteCfg    SuiteConfig              `mapstructure:"suite" yaml:"suite"`
	SMSCfg      SMSConfig                `mapstructure:"sms" yaml:"sms"`
	FixturesCfg FixturesConfig           `mapstructure:"fixtures" yaml:"fixtures"`
	LocatorsCfg map[string]LocatorConfig `mapstructure:"locators" yaml:"locators"`
	ReportCfg   ReportConfig             `mapstructure:"report" yaml:"report"`
	DatabaseCfg DatabaseConfig           `mapstructure:"database" yaml:"database"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig               { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig             { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig                   { return c.WaitCfg }
func (c *Config) Suite() SuiteConfig                 { return c.SuiteCfg }
func (c *Config) SMS() SMSConfig                     { return c.SMSCfg }
func (c *Config) Fixtures() FixturesConfig           { return c.FixturesCfg }
func (c *Config) Locators() map[string]LocatorConfig { return c.LocatorsCfg }
func (c *Config) Report() ReportConfig               { return c.ReportCfg }
func (c *Config) Database() DatabaseConfig           { return c.DatabaseCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetReportFormat(f string)  { c.ReportCfg.Format = f }
func (c *Config) SetReportOutput(p string)  { c.ReportCfg.Output = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the browser session shared by a suite run.
type BrowserConfig struct {
	Headless        bool `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	// RemoteURL attaches to an already running browser (devtools websocket URL) instead of launching one.
	RemoteURL         string         `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	LookupTimeout     time.Duration  `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
	// EngineRPS caps the rate of CDP calls made on behalf of element lookups and interactions.
	EngineRPS float64 `mapstructure:"engine_rps" yaml:"engine_rps"`
	Debug     bool    `mapstructure:"debug" yaml:"debug"`
}

// WaitConfig tunes the explicit wait policy.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// ModalTimeout bounds the wait for the order confirmation modal after searching for a taxi.
	ModalTimeout time.Duration `mapstructure:"modal_timeout" yaml:"modal_timeout"`
}

// SuiteConfig controls scenario execution.
type SuiteConfig struct {
	ScenarioTimeout time.Duration `mapstructure:"scenario_timeout" yaml:"scenario_timeout"`
	// Scenarios restricts a run to these names when no names are given on the command line.
	Scenarios []string `mapstructure:"scenarios" yaml:"scenarios"`
}

// SMSConfig configures retrieval of the phone confirmation code from captured network traffic.
type SMSConfig struct {
	URLPattern string        `mapstructure:"url_pattern" yaml:"url_pattern"`
	Attempts   int           `mapstructure:"attempts" yaml:"attempts"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
}

// FixturesConfig is the static test data consumed by the suite.
type FixturesConfig struct {
	URL              string `mapstructure:"url" yaml:"url"`
	AddressFrom      string `mapstructure:"address_from" yaml:"address_from"`
	AddressTo        string `mapstructure:"address_to" yaml:"address_to"`
	PhoneNumber      string `mapstructure:"phone_number" yaml:"phone_number"`
	CardNumber       string `mapstructure:"card_number" yaml:"card_number"`
	CardCode         string `mapstructure:"card_code" yaml:"card_code"`
	MessageForDriver string `mapstructure:"message_for_driver" yaml:"message_for_driver"`
}

// LocatorConfig overrides the selector of a registered locator.
type LocatorConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	Value    string `mapstructure:"value" yaml:"value"`
}

// ReportConfig selects the report renderer and destination.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DatabaseConfig holds the database connection details for result persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "routeflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport.width", 1366)
	v.SetDefault("browser.viewport.height", 900)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.lookup_timeout", "5s")
	v.SetDefault("browser.engine_rps", 20.0)
	v.SetDefault("browser.debug", false)

	// -- Wait --
	v.SetDefault("wait.timeout", "10s")
	v.SetDefault("wait.poll_interval", "250ms")
	v.SetDefault("wait.modal_timeout", "40s")

	// -- Suite --
	v.SetDefault("suite.scenario_timeout", "2m")

	// -- SMS --
	v.SetDefault("sms.url_pattern", "api/v1/number?number")
	v.SetDefault("sms.attempts", 10)
	v.SetDefault("sms.interval", "1s")

	// -- Fixtures --
	v.SetDefault("fixtures.url", "http://localhost:8080")
	v.SetDefault("fixtures.address_from", "East 2nd Street, 601")
	v.SetDefault("fixtures.address_to", "1300 1st St")
	v.SetDefault("fixtures.phone_number", "+1 123 123 12 12")
	v.SetDefault("fixtures.card_number", "1234 5678 9100")
	v.SetDefault("fixtures.card_code", "111")
	v.SetDefault("fixtures.message_for_driver", "Stop at the juice bar, please")

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "stdout")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("database.url", "ROUTEFLOW_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in user supplied file paths.
func (c *Config) expandPaths() error {
	logFile, err := homedir.Expand(c.LoggerCfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand logger.log_file: %w", err)
	}
	c.LoggerCfg.LogFile = logFile

	if c.ReportCfg.Output != "stdout" {
		output, err := homedir.Expand(c.ReportCfg.Output)
		if err != nil {
			return fmt.Errorf("failed to expand report.output: %w", err)
		}
		c.ReportCfg.Output = output
	}
	return nil
}

// minPollInterval keeps the wait policy from hammering the browser.
const minPollInterval = 50 * time.Millisecond

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.FixturesCfg.URL == "" {
		return fmt.Errorf("fixtures.url is a required configuration field")
	}
	if c.WaitCfg.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be a positive duration")
	}
	if c.WaitCfg.PollInterval < minPollInterval {
		return fmt.Errorf("wait.poll_interval must be at least %v", minPollInterval)
	}
	if c.WaitCfg.PollInterval > c.WaitCfg.Timeout {
		return fmt.Errorf("wait.poll_interval must not exceed wait.timeout")
	}
	if c.SuiteCfg.ScenarioTimeout <= 0 {
		return fmt.Errorf("suite.scenario_timeout must be a positive duration")
	}
	if c.SMSCfg.Attempts <= 0 {
		return fmt.Errorf("sms.attempts must be a positive integer")
	}
	if c.BrowserCfg.EngineRPS <= 0 {
		return fmt.Errorf("browser.engine_rps must be positive")
	}
	switch c.ReportCfg.Format {
	case "text", "json", "junit":
	default:
		return fmt.Errorf("report.format must be one of text, json, junit (got %q)", c.ReportCfg.Format)
	}
	for name, l := range c.LocatorsCfg {
		if l.Value == "" {
			return fmt.Errorf("locators.%s.value must not be empty", name)
		}
	}
	return nil
}
