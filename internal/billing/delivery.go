package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"billing/internal/dispatch"
	"billing/internal/render"
	"billing/pkg/models"
	"billing/pkg/services"
)

// DefaultContractTemplate is the contract mail body used when no template file
// is configured.
const DefaultContractTemplate = `Hallo,

anbei erhalten Sie Ihren Vertrag {{.Contract.ID}} mit {{.Company}}.

Mit freundlichen Grüßen
{{.Company}}
`

// LoadContractTemplate parses the contract mail template at path, or the
// default template when path is empty.
func LoadContractTemplate(path string) (*template.Template, error) {
	if path == "" {
		return template.New("contract_mail").Parse(DefaultContractTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("billing.LoadContractTemplate: %w", err)
	}
	return template.New("contract_mail").Parse(string(data))
}

// Selector picks the invoices of a send run by their id suffix.
type Selector struct {
	Suffix string // "YYYY.MM", "YYYY.MM-YYYY.MM" or a free ledger suffix
}

// MonthSelector selects the invoices of one calendar month.
func MonthSelector(year, month int) Selector {
	return Selector{Suffix: fmt.Sprintf("%04d.%02d", year, month)}
}

func (s Selector) matches(inv *models.Invoice) bool {
	return inv.ID == inv.ContractID+"."+s.Suffix
}

// SendInvoices delivers the selected invoices. Invoices sent before are skipped
// unless force is set.
func (e *Engine) SendInvoices(ctx context.Context, sel Selector, filter Filter, force bool) (Run, error) {
	const op = "SendInvoices"

	var run Run
	if e.tracker == nil {
		return run, fmt.Errorf("%s: %w", op, ErrNoMailer)
	}
	if force {
		e.log.Info().Msg("Force resend enabled")
	}

	invoices, err := e.selectInvoices(filter)
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, inv := range lo.Filter(invoices, func(inv *models.Invoice, _ int) bool { return sel.matches(inv) }) {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}

		o := Outcome{ContractID: inv.ContractID, InvoiceID: inv.ID}
		out, err := e.tracker.Dispatch(ctx, inv, force)
		switch {
		case err != nil:
			e.fail(&run, o, err)
			continue
		case out.Skipped:
			o.Status = StatusSkipped
		default:
			o.Status = StatusSent
		}
		run.add(o)
	}
	return run, nil
}

// SendContract mails the rendered contract cid with the item descriptions found
// in the assets directory and the configured policy.
func (e *Engine) SendContract(ctx context.Context, cid string) error {
	const op = "SendContract"

	if e.mailer == nil {
		return fmt.Errorf("%s: %w", op, ErrNoMailer)
	}

	c, err := e.contracts.Get(cid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%s: contract %s: %w", op, cid, dispatch.ErrNoRecipient)
	}

	cfg := e.contractMail
	pdf, err := os.ReadFile(e.contracts.PDFPath(cid))
	if err != nil {
		return fmt.Errorf("%s: contract %s not rendered: %w", op, cid, err)
	}
	attachments := []services.Attachment{{
		Filename:    strings.TrimSpace(cfg.Company + " " + cid + ".pdf"),
		ContentType: "application/pdf",
		Data:        pdf,
	}}

	names := lo.Map(c.Items, func(item models.Item, _ int) string { return item.Description + ".pdf" })
	if cfg.Policy != "" {
		names = append(names, cfg.Policy)
	}
	for _, name := range lo.Uniq(names) {
		data, err := os.ReadFile(filepath.Join(cfg.Assets, name))
		if err != nil {
			e.log.Warn().Str("cid", cid).Msgf("Item file %s not found", name)
			continue
		}
		attachments = append(attachments, services.Attachment{Filename: name, ContentType: "application/pdf", Data: data})
	}

	var body strings.Builder
	if err := cfg.Template.Execute(&body, map[string]any{"Contract": c, "Company": cfg.Company}); err != nil {
		return fmt.Errorf("%s: render mail body: %w", op, err)
	}

	e.log.Info().Str("cid", cid).Str("to", c.Email).Msgf("Sending contract %s", cid)
	err = e.mailer.Send(ctx, services.Message{
		From:        cfg.From,
		To:          c.Email,
		Subject:     strings.TrimSpace(cfg.Subject + " " + cid),
		Body:        body.String(),
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RenderInvoices renders every stored invoice without a PDF, or all of them
// with force.
func (e *Engine) RenderInvoices(ctx context.Context, force bool) (Run, error) {
	const op = "RenderInvoices"

	var run Run
	if e.renderer == nil {
		return run, fmt.Errorf("%s: %w", op, ErrNoRenderer)
	}
	invoices, err := e.invoices.ListAll()
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, inv := range invoices {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}

		o := Outcome{ContractID: inv.ContractID, InvoiceID: inv.ID}
		path := e.invoices.PDFPath(inv)
		if render.Exists(path) && !force {
			o.Status = StatusExists
			run.add(o)
			continue
		}
		if err := e.renderer.RenderInvoice(inv, path); err != nil {
			e.fail(&run, o, err)
			continue
		}
		e.log.Info().Str("invoice", inv.ID).Msgf("Rendered %s", path)
		o.Status = StatusCreated
		run.add(o)
	}
	return run, nil
}

// RenderContracts renders every contract without a PDF, or all with force.
func (e *Engine) RenderContracts(ctx context.Context, force bool) (Run, error) {
	const op = "RenderContracts"

	var run Run
	if e.renderer == nil {
		return run, fmt.Errorf("%s: %w", op, ErrNoRenderer)
	}
	contracts, err := e.selectContracts(&run, Filter{}, nil)
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, c := range contracts {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}

		o := Outcome{ContractID: c.ID}
		path := e.contracts.PDFPath(c.ID)
		if render.Exists(path) && !force {
			o.Status = StatusExists
			run.add(o)
			continue
		}
		if err := e.renderer.RenderContract(c, path); err != nil {
			e.fail(&run, o, err)
			continue
		}
		e.log.Info().Str("cid", c.ID).Msgf("Rendered %s", path)
		o.Status = StatusCreated
		run.add(o)
	}
	return run, nil
}

func (e *Engine) selectInvoices(filter Filter) ([]*models.Invoice, error) {
	if filter.IDOnly == "" {
		return e.invoices.ListAll()
	}
	if _, err := e.contracts.Get(filter.IDOnly); err != nil {
		return nil, err
	}
	e.log.Info().Msgf("Only sending to %s", filter.IDOnly)
	return e.invoices.List(filter.IDOnly)
}
