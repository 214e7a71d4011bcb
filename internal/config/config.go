package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	cfg     *APIConfig
	loadErr error
	once    sync.Once
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	DB             DBConfig             `xml:"DB"`
	Redis          RedisConfig          `xml:"REDIS"`
	EnglishTest    EnglishTestConfig    `xml:"ENGLISH_TEST"`
	Logging        LoggingConfig        `xml:"LOGGING"`
	Messaging      MessagingConfig      `xml:"MESSAGING"`
	Mail           MailConfig           `xml:"MAIL"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
}

// Secret is a value that is either written inline (TYPE="plain") or names
// an environment variable (TYPE="env").
type Secret struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// Resolve returns the effective secret value.
func (s Secret) Resolve() string {
	v := strings.TrimSpace(s.Value)
	if strings.EqualFold(s.Type, "env") {
		return os.Getenv(v)
	}
	return v
}

// AuthenticationConfig holds token and login settings.
type AuthenticationConfig struct {
	AccessSecret    Secret          `xml:"ACCESS_SECRET"`
	RefreshSecret   Secret          `xml:"REFRESH_SECRET"`
	AccessTokenTTL  int             `xml:"ACCESS_TOKEN_TTL"`  // minutes
	RefreshTokenTTL int             `xml:"REFRESH_TOKEN_TTL"` // minutes
	RateLimit       RateLimitConfig `xml:"RATE_LIMIT"`
}

type RateLimitConfig struct {
	RPS   float64 `xml:"RPS,attr"`
	Burst int     `xml:"BURST,attr"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	Driver     string       `xml:"DRIVER"`
	SSLMode    string       `xml:"SSL_MODE"`
	Name       string       `xml:"NAME"`
	Username   string       `xml:"USERNAME"`
	Password   Secret       `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"` // seconds
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.Username, c.Password.Resolve(), c.Name, c.SSLMode)
}

type RedisConfig struct {
	URL          Secret `xml:"URL"`
	BlacklistKey string `xml:"BLACKLIST_KEY"`
}

// EnglishTestConfig holds the per-level quotas and the pass threshold.
type EnglishTestConfig struct {
	DiagnosticPerLevel int     `xml:"DIAGNOSTIC_PER_LEVEL"`
	ProgressionCurrent int     `xml:"PROGRESSION_CURRENT"`
	ProgressionNext    int     `xml:"PROGRESSION_NEXT"`
	UpgradeQuestions   int     `xml:"UPGRADE_QUESTIONS"`
	PassThreshold      float64 `xml:"PASS_THRESHOLD"`
	HistoryLimit       int     `xml:"HISTORY_LIMIT"`
}

type LoggingConfig struct {
	Dir        string `xml:"DIR"`
	Level      string `xml:"LEVEL"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
}

type MessagingConfig struct {
	AMQPURL  Secret `xml:"AMQP_URL"`
	Exchange string `xml:"EXCHANGE"`
}

type MailConfig struct {
	SMTPHost    string `xml:"SMTP_HOST"`
	SMTPPort    int    `xml:"SMTP_PORT"`
	Username    string `xml:"USERNAME"`
	Password    Secret `xml:"PASSWORD"`
	From        string `xml:"FROM"`
	CodeTTL     int    `xml:"CODE_TTL"` // minutes
	Concurrency int    `xml:"CONCURRENCY"`
}

// Default returns a configuration that runs locally without external services.
func Default() *APIConfig {
	c := &APIConfig{
		Context: ContextConfig{Port: 8080, Host: "0.0.0.0", Path: "/", TimeZone: "UTC"},
		Authentication: AuthenticationConfig{
			AccessTokenTTL:  60,
			RefreshTokenTTL: 7 * 24 * 60,
			RateLimit:       RateLimitConfig{RPS: 5, Burst: 10},
		},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			Driver:  "postgres",
			SSLMode: "disable",
			Name:    "lexiq",
			Pool:    DBPoolConfig{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: 300},
		},
		Redis:       RedisConfig{BlacklistKey: "token_blacklist"},
		EnglishTest: EnglishTestConfig{},
		Logging:     LoggingConfig{Dir: "logs", Level: "INFO", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 30},
		Messaging:   MessagingConfig{Exchange: "english_test"},
		Mail:        MailConfig{SMTPPort: 587, CodeTTL: 15, Concurrency: 5},
	}
	c.applyDefaults()
	return c
}

func (c *APIConfig) applyDefaults() {
	et := &c.EnglishTest
	if et.DiagnosticPerLevel <= 0 {
		et.DiagnosticPerLevel = 5
	}
	if et.ProgressionCurrent <= 0 {
		et.ProgressionCurrent = 8
	}
	if et.ProgressionNext <= 0 {
		et.ProgressionNext = 7
	}
	if et.UpgradeQuestions <= 0 {
		et.UpgradeQuestions = 10
	}
	if et.PassThreshold <= 0 {
		et.PassThreshold = 0.6
	}
	if et.HistoryLimit <= 0 {
		et.HistoryLimit = 10
	}
	if c.Authentication.AccessTokenTTL <= 0 {
		c.Authentication.AccessTokenTTL = 60
	}
	if c.Authentication.RefreshTokenTTL <= 0 {
		c.Authentication.RefreshTokenTTL = 7 * 24 * 60
	}
	if c.Redis.BlacklistKey == "" {
		c.Redis.BlacklistKey = "token_blacklist"
	}
	if c.Mail.CodeTTL <= 0 {
		c.Mail.CodeTTL = 15
	}
	if c.Mail.Concurrency <= 0 {
		c.Mail.Concurrency = 5
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}

// Validate rejects configurations the server cannot start with.
func (c *APIConfig) Validate() error {
	if c.Context.Port <= 0 || c.Context.Port > 65535 {
		return fmt.Errorf("invalid CONTEXT/PORT %d", c.Context.Port)
	}
	if c.Authentication.AccessSecret.Resolve() == "" {
		return fmt.Errorf("AUTHENTICATION/ACCESS_SECRET is empty")
	}
	if t := c.EnglishTest.PassThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("ENGLISH_TEST/PASS_THRESHOLD must be in (0,1], got %v", t)
	}
	return nil
}

// AccessTTL and RefreshTTL convert the minute settings to durations.
func (a AuthenticationConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenTTL) * time.Minute
}

func (a AuthenticationConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTL) * time.Minute
}

// Parse decodes an XML configuration document and fills in defaults.
func Parse(data []byte) (*APIConfig, error) {
	var newCfg APIConfig
	if err := xml.Unmarshal(data, &newCfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	newCfg.applyDefaults()
	return &newCfg, nil
}

// LoadConfig loads and parses the XML configuration from the given file.
// A .env file next to the process is loaded first so TYPE="env" secrets resolve.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	once.Do(func() {
		_ = godotenv.Load()

		f, err := os.Open(xmlPath)
		if err != nil {
			loadErr = fmt.Errorf("open config: %w", err)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			loadErr = fmt.Errorf("read config: %w", err)
			return
		}

		cfg, loadErr = Parse(data)
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return cfg, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}
