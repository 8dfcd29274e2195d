package billing

import (
	"fmt"

	"billing/internal/config"
	"billing/internal/contract"
	"billing/internal/dispatch"
	"billing/internal/invoice"
	"billing/internal/ledger"
	"billing/internal/mailer"
	"billing/internal/render"
)

// Open builds an engine over the workspace described by cfg, delivering mail
// through the configured SMTP server.
func Open(cfg *config.Config) (*Engine, error) {
	const op = "billing.Open"

	invoiceTemplate, err := dispatch.LoadTemplate(cfg.InvoiceMail.Template)
	if err != nil {
		return nil, fmt.Errorf("%s: invoice mail template: %w", op, err)
	}
	contractTemplate, err := LoadContractTemplate(cfg.ContractMail.Template)
	if err != nil {
		return nil, fmt.Errorf("%s: contract mail template: %w", op, err)
	}

	smtp := mailer.New(mailer.Config{
		Server:   cfg.SMTP.Server,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Insecure: cfg.SMTP.Insecure,
	})
	invoices := invoice.NewStore(cfg.InvoicesDir)

	return New(Deps{
		Contracts: contract.NewStore(cfg.ContractsDir),
		Ledger:    ledger.New(cfg.BilledItemsDir, cfg.Locale),
		Generator: invoice.NewGenerator(cfg.VAT, cfg.DateFormat),
		Invoices:  invoices,
		Tracker: dispatch.NewTracker(invoices, smtp, dispatch.Config{
			From:     cfg.Sender,
			Subject:  cfg.InvoiceMail.Subject,
			Company:  cfg.Company,
			Template: invoiceTemplate,
		}),
		Mailer: smtp,
		Renderer: render.NewPDFRenderer(render.Config{
			Company:    cfg.Company,
			Sender:     cfg.CompanyAddress,
			Locale:     cfg.Locale,
			DateLayout: cfg.DateFormat,
		}),
		ContractMail: ContractMail{
			From:     cfg.Sender,
			Subject:  cfg.ContractMail.Subject,
			Company:  cfg.Company,
			Template: contractTemplate,
			Assets:   cfg.AssetsDir,
			Policy:   cfg.PolicyAttachment,
		},
	}), nil
}
