package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"billing/internal/logger"
)

// FileName is the settings file expected in the workspace directory.
const FileName = "billing.yaml"

// Workspace directory names, relative to the workspace root.
const (
	ContractsDirName   = "contracts"
	InvoicesDirName    = "invoices"
	BilledItemsDirName = "billed_items"
	PaymentsDirName    = "payments"
	AssetsDirName      = "assets"
	TemplatesDirName   = "templates"
)

// ErrConfigNotFound is returned when the workspace has no settings file.
var ErrConfigNotFound = errors.New("config file not found")

// DefaultStatementHeader is the column header of the Postbank CSV export.
var DefaultStatementHeader = []string{
	"Buchungsdatum",
	"Wertstellung",
	"Umsatzart",
	"Buchungsdetails",
	"Auftraggeber",
	"Empfänger",
	"Betrag (€)",
	"Saldo (€)",
}

type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Insecure bool // Skip TLS certificate verification
}

type MailConfig struct {
	Subject  string
	Template string // Path to a text/template file, empty for the built-in text
}

type Config struct {
	// Workspace layout
	Dir            string
	ContractsDir   string
	InvoicesDir    string
	BilledItemsDir string
	PaymentsDir    string
	AssetsDir      string
	TemplatesDir   string

	// Company
	Company        string
	CompanyAddress []string // Printed on documents below the company name
	Sender         string   // From address of outgoing mail

	// Billing
	VAT           decimal.Decimal // Flat VAT percent
	Locale        string          // "de" or "en", used for month names
	DateFormat    string          // Go layout for invoice dates
	DecimalPlaces int32           // Quantization of payment amounts and balances

	// Delivery
	SMTP             SMTPConfig
	InvoiceMail      MailConfig
	ContractMail     MailConfig
	PolicyAttachment string // File name in the assets directory, optional

	// Payments
	StatementHeader []string

	// Export
	SheetURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the settings file of the workspace in dir. Environment variables with
// the BILLING_ prefix override file values ("smtp.password" -> BILLING_SMTP_PASSWORD).
func Load(dir string) (*Config, error) {
	const op = "config.Load"

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w at %s", op, ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.BindEnv("log.level", "BILLING_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "BILLING_LOG_FORMAT", "LOG_FORMAT")
	_ = v.BindEnv("log.output", "BILLING_LOG_OUTPUT", "LOG_OUTPUT")
	_ = v.BindEnv("sheets.url", "BILLING_SHEETS_URL", "GOOGLE_SHEET_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
	}

	vat, err := decimal.NewFromString(strings.TrimSpace(v.GetString("vat")))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid vat %q: %w", op, v.GetString("vat"), err)
	}

	cfg := &Config{
		Dir:            root,
		ContractsDir:   filepath.Join(root, ContractsDirName),
		InvoicesDir:    filepath.Join(root, InvoicesDirName),
		BilledItemsDir: filepath.Join(root, BilledItemsDirName),
		PaymentsDir:    filepath.Join(root, PaymentsDirName),
		AssetsDir:      filepath.Join(root, AssetsDirName),
		TemplatesDir:   filepath.Join(root, TemplatesDirName),
		Company:        v.GetString("company"),
		CompanyAddress: v.GetStringSlice("company_address"),
		Sender:         v.GetString("sender"),
		VAT:            vat,
		Locale:         strings.ToLower(v.GetString("locale")),
		DateFormat:     v.GetString("date_format"),
		DecimalPlaces:  v.GetInt32("decimal_places"),
		SMTP: SMTPConfig{
			Server:   v.GetString("smtp.server"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			Insecure: v.GetBool("smtp.insecure"),
		},
		InvoiceMail: MailConfig{
			Subject:  v.GetString("invoice_mail.subject"),
			Template: v.GetString("invoice_mail.template"),
		},
		ContractMail: MailConfig{
			Subject:  v.GetString("contract_mail.subject"),
			Template: v.GetString("contract_mail.template"),
		},
		PolicyAttachment: v.GetString("policy_attachment"),
		StatementHeader:  v.GetStringSlice("statement.header"),
		SheetURL:         v.GetString("sheets.url"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
		LogTimeFormat:    v.GetString("log.time_format"),
		LogOutput:        v.GetString("log.output"),
	}

	if len(cfg.StatementHeader) == 0 {
		cfg.StatementHeader = DefaultStatementHeader
	}
	cfg.InvoiceMail.Template = cfg.resolveTemplate(cfg.InvoiceMail.Template)
	cfg.ContractMail.Template = cfg.resolveTemplate(cfg.ContractMail.Template)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: config validation failed: %w", op, err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vat", "19")
	v.SetDefault("locale", "de")
	v.SetDefault("date_format", "02.01.2006")
	v.SetDefault("decimal_places", 2)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("invoice_mail.subject", "Rechnung")
	v.SetDefault("contract_mail.subject", "Vertrag")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.time_format", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("log.output", "stderr")
}

func (c *Config) resolveTemplate(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.TemplatesDir, name)
}

func (c *Config) validate() error {
	if c.Company == "" {
		return fmt.Errorf("company is required")
	}
	if c.VAT.IsNegative() {
		return fmt.Errorf("vat must not be negative")
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 8 {
		return fmt.Errorf("decimal_places must be between 0 and 8")
	}
	if c.Locale != "de" && c.Locale != "en" {
		return fmt.Errorf("locale must be one of de, en")
	}
	return nil
}

// VerifyPaths checks that all workspace directories exist.
func (c *Config) VerifyPaths() error {
	for _, dir := range c.Dirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("the workspace directory %s is missing, run init first", dir)
		}
	}
	return nil
}

// Dirs lists all workspace directories.
func (c *Config) Dirs() []string {
	return []string{
		c.ContractsDir,
		c.InvoicesDir,
		c.BilledItemsDir,
		c.PaymentsDir,
		c.AssetsDir,
		c.TemplatesDir,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
