package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	AIProviderVertex = "vertex"
	AIProviderGemini = "gemini"
)

type Config struct {
	ProjectID string `koanf:"PROJECTID"`
	Region    string `koanf:"REGION"`
	Port      string `koanf:"PORT"`
	LogLevel  string `koanf:"LOGLEVEL"`
	LogFormat string `koanf:"LOGFORMAT"`

	AIProvider   string `koanf:"AIPROVIDER"`
	VertexModel  string `koanf:"VERTEXMODEL"`
	GeminiAPIKey string `koanf:"GEMINIAPIKEY"`
	GeminiModel  string `koanf:"GEMINIMODEL"`

	KMSKeyName string `koanf:"KMSKEYNAME"`

	TwilioAccountSID  string `koanf:"TWILIOACCOUNTSID"`
	TwilioAuthToken   string `koanf:"TWILIOAUTHTOKEN"`
	TwilioPhoneNumber string `koanf:"TWILIOPHONENUMBER"`

	TimeZone         string        `koanf:"TIMEZONE"`
	SchedulerEnabled bool          `koanf:"SCHEDULERENABLED"`
	MailDialTimeout  time.Duration `koanf:"MAILDIALTIMEOUT"`
}

// New reads the process environment. Call godotenv first for local runs.
func New() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// Fields absent from the environment keep these values.
	cfg := &Config{SchedulerEnabled: true}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Region == "" {
		c.Region = "asia-south1"
	}
	if c.AIProvider == "" {
		c.AIProvider = AIProviderVertex
	}
	c.AIProvider = strings.ToLower(c.AIProvider)
	if c.VertexModel == "" {
		c.VertexModel = "gemini-2.0-flash"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash"
	}
	if c.TimeZone == "" {
		c.TimeZone = "Asia/Kolkata"
	}
	if c.MailDialTimeout <= 0 {
		c.MailDialTimeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	var problems []error
	if c.ProjectID == "" {
		problems = append(problems, errors.New("PROJECTID is required"))
	}
	if c.KMSKeyName == "" {
		problems = append(problems, errors.New("KMSKEYNAME is required"))
	}
	switch c.AIProvider {
	case AIProviderVertex:
	case AIProviderGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, errors.New("GEMINIAPIKEY is required when AIPROVIDER=gemini"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown AIPROVIDER %q", c.AIProvider))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		problems = append(problems, fmt.Errorf("TIMEZONE: %w", err))
	}
	return errors.Join(problems...)
}

// SMSConfigured reports whether every Twilio credential is present.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}
