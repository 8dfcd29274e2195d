package config

import (
	"fmt"
	"os"
	"path/filepath"

	"billing/internal/storage"
)

// SampleConfig is written by Init when the workspace has no settings file yet.
const SampleConfig = `# Billing workspace settings
company: Beispiel Hosting
company_address:
  - Hauptstraße 1
  - 12345 Musterstadt
sender: rechnung@example.com

vat: 19
locale: de
date_format: "02.01.2006"
decimal_places: 2

smtp:
  server: smtp.example.com
  port: 587
  username: rechnung@example.com
  password: ""   # or BILLING_SMTP_PASSWORD
  insecure: false

invoice_mail:
  subject: Rechnung
  template: invoice_mail.txt

contract_mail:
  subject: Vertrag
  template: contract_mail.txt

# File in assets/ attached to every contract mail
policy_attachment: ""

log:
  level: info
  format: console
  output: stderr
`

// InitResult reports what Init created.
type InitResult struct {
	ConfigWritten bool
	Dirs          []string // Directories that did not exist before
}

// Init creates the settings file and the directory structure of a workspace in
// dir. Existing files are left alone.
func Init(dir string) (InitResult, error) {
	const op = "config.Init"

	root, err := filepath.Abs(dir)
	if err != nil {
		return InitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var result InitResult
	path := filepath.Join(root, FileName)
	if !storage.Exists(path) {
		if err := storage.WriteFile(path, []byte(SampleConfig)); err != nil {
			return InitResult{}, fmt.Errorf("%s: %w", op, err)
		}
		result.ConfigWritten = true
	}

	for _, name := range []string{ContractsDirName, InvoicesDirName, BilledItemsDirName, PaymentsDirName, AssetsDirName, TemplatesDirName} {
		d := filepath.Join(root, name)
		if _, err := os.Stat(d); err == nil {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return InitResult{}, fmt.Errorf("%s: %w", op, err)
		}
		result.Dirs = append(result.Dirs, d)
	}

	return result, nil
}
