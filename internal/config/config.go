package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Payroll  PayrollConfig
	MongoDB  MongoDBConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// The integration is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken      string
	PhoneNumberID    string
	VerifyToken      string
	BaseURL          string
	APIVersion       string
	PayrollManagerID string
}

// Enabled reports whether WhatsApp credentials were supplied.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	UploadRange     string
	SummaryRange    string
}

// Enabled reports whether a spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// PayrollConfig holds the scheduled finalize and engine settings.
type PayrollConfig struct {
	CronSchedule       string
	Timezone           string
	WindowDays         int
	SurchargeTaskCode  string
	DefaultProfitShare float64
}

// Location resolves Timezone.
func (c PayrollConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// LogConfig selects the zap level.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	windowDays, err := getenvInt("PAYROLL_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	profitShare, err := getenvFloat("DEFAULT_PROFIT_SHARE", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:      os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:    os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:      os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:          getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:       getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			PayrollManagerID: os.Getenv("WHATSAPP_PAYROLL_MANAGER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			UploadRange:     getenvWithDefault("GOOGLE_SHEET_UPLOAD_RANGE", "Jobs!A1:J"),
			SummaryRange:    getenvWithDefault("GOOGLE_SHEET_SUMMARY_RANGE", "Payroll!A1"),
		},
		Payroll: PayrollConfig{
			CronSchedule:       getenvWithDefault("PAYROLL_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:           getenvWithDefault("TIMEZONE", "UTC"),
			WindowDays:         windowDays,
			SurchargeTaskCode:  getenvWithDefault("SURCHARGE_TASK_CODE", "AERIAL DROP"),
			DefaultProfitShare: profitShare,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "fieldpay"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Payroll.CronSchedule == "" {
		return errors.New("PAYROLL_CRON_SCHEDULE must be provided")
	}
	if c.Payroll.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := c.Payroll.Location(); err != nil {
		return err
	}
	if c.Payroll.WindowDays < 1 {
		return errors.New("PAYROLL_WINDOW_DAYS must be at least 1")
	}
	if c.Payroll.DefaultProfitShare < 0 || c.Payroll.DefaultProfitShare > 100 {
		return errors.New("DEFAULT_PROFIT_SHARE must be between 0 and 100")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
