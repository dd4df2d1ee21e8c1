package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "HARVESTER_CONFIG"
	logLevelEnv       = "HARVESTER_LOG_LEVEL"
	browserDriverEnv  = "HARVESTER_BROWSER_DRIVER"
	outputDirEnv      = "HARVESTER_OUTPUT_DIR"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	DriverChrome = "chrome"
	DriverHTTP   = "http"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Site          SiteConfig         `yaml:"site"`
	Browser       BrowserConfig      `yaml:"browser"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Extract       ExtractConfig      `yaml:"extract"`
	Output        OutputConfig       `yaml:"output"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// SiteConfig describes the target site's URL scheme and page layout.
// Templates accept {base}, {query} and {id} placeholders.
type SiteConfig struct {
	BaseURL              string           `yaml:"baseUrl" validate:"required,url"`
	SearchURLTemplate    string           `yaml:"searchUrlTemplate" validate:"required"`
	ArticlePathPrefix    string           `yaml:"articlePathPrefix" validate:"required,startswith=/"`
	ResourcePathPrefix   string           `yaml:"resourcePathPrefix"`
	ResourceSuffix       string           `yaml:"resourceSuffix" validate:"required"`
	DomainFragment       string           `yaml:"domainFragment"`
	StandardPathTemplate string           `yaml:"standardPathTemplate"`
	TitleSuffix          string           `yaml:"titleSuffix"`
	Selectors            SelectorConfig   `yaml:"selectors"`
	Mutations            []MutationConfig `yaml:"mutations" validate:"dive"`
}

// SelectorConfig overrides the built-in selector cascades; empty lists keep the defaults.
type SelectorConfig struct {
	Results  []string `yaml:"results"`
	Title    []string `yaml:"title"`
	Body     []string `yaml:"body"`
	Abstract []string `yaml:"abstract"`
	Resource []string `yaml:"resource"`
}

// MutationConfig rewrites an article URL into a resource URL guess.
type MutationConfig struct {
	Replace string `yaml:"replace" validate:"required_with=With"`
	With    string `yaml:"with"`
	Append  string `yaml:"append"`
}

// BrowserConfig drives the web session.
type BrowserConfig struct {
	Driver            string        `yaml:"driver" validate:"oneof=chrome http"`
	Headless          bool          `yaml:"headless"`
	ExecPath          string        `yaml:"execPath"`
	UserAgent         string        `yaml:"userAgent"`
	WindowWidth       int           `yaml:"windowWidth" validate:"gte=0"`
	WindowHeight      int           `yaml:"windowHeight" validate:"gte=0"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout" validate:"gte=0"`
	ActionTimeout     time.Duration `yaml:"actionTimeout" validate:"gte=0"`
	SettleDelay       time.Duration `yaml:"settleDelay" validate:"gte=0"`
	ArticleDelay      time.Duration `yaml:"articleDelay" validate:"gte=0"`
	ScreenshotDir     string        `yaml:"screenshotDir"`
}

// FetchConfig tunes plain HTTP downloads.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent   string        `yaml:"userAgent"`
	MaxAttempts int           `yaml:"maxAttempts" validate:"gte=1,lte=10"`
	MaxBytes    int64         `yaml:"maxBytes" validate:"gte=0"`
}

// ExtractConfig toggles optional extraction strategies.
type ExtractConfig struct {
	ReadabilityFallback bool `yaml:"readabilityFallback"`
}

// OutputConfig describes where artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir" validate:"required"`
	NameLimit int    `yaml:"nameLimit" validate:"gte=50,lte=100"`
	TextPDF   bool   `yaml:"textPdf"`
	PDFFont   string `yaml:"pdfFont" validate:"omitempty,file"`
}

// DatabaseConfig describes Postgres connection details. Empty DSN disables history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines how often the watch command re-runs a search.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" validate:"required_with=ChatID"`
	ChatID   string `yaml:"chatId" validate:"required_with=BotToken"`
}

// Enabled reports whether both token and chat are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration (if present) over the defaults and applies environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Decode unmarshals YAML on top of cfg; keys absent from raw keep their current values.
func Decode(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return err
	}
	return nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config: invalid %s (%s=%s)", first.Namespace(), first.Tag(), first.Param())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(browserDriverEnv); v != "" {
		c.Browser.Driver = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil && v[0] != '@' {
			return fmt.Errorf("config: %s must be numeric or @channel", telegramChatIDEnv)
		}
		c.Notifications.Telegram.ChatID = v
	}

	return nil
}

// Default returns the settings for cyberleninka.ru.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Site: SiteConfig{
			BaseURL:              "https://cyberleninka.ru",
			SearchURLTemplate:    "{base}/search?q={query}",
			ArticlePathPrefix:    "/article/",
			ResourcePathPrefix:   "/pdf/",
			ResourceSuffix:       ".pdf",
			StandardPathTemplate: "{base}/article/{id}.pdf",
			TitleSuffix:          " - КиберЛенинка",
		},
		Browser: BrowserConfig{
			Driver:            DriverChrome,
			Headless:          true,
			WindowWidth:       1920,
			WindowHeight:      1080,
			NavigationTimeout: 30 * time.Second,
			ActionTimeout:     10 * time.Second,
			SettleDelay:       3 * time.Second,
			ArticleDelay:      2 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 2,
			MaxBytes:    64 << 20,
		},
		Output: OutputConfig{
			Dir:       "articles",
			NameLimit: 50,
		},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour},
	}
}
