// Package billing runs the batch operations of a workspace: it loops over the
// selected contracts or invoices and reports one outcome per record.
package billing

import (
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"billing/internal/contract"
	"billing/internal/dispatch"
	"billing/internal/invoice"
	"billing/internal/ledger"
	"billing/internal/logger"
	"billing/pkg/models"
	"billing/pkg/services"
)

var (
	// ErrNoMailer is returned by delivery operations of an engine built without one.
	ErrNoMailer = errors.New("no mailer configured")

	// ErrNoRenderer is returned by render operations of an engine built without one.
	ErrNoRenderer = errors.New("no renderer configured")
)

// Status is the result of one record in a batch run.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyBilled Status = "already_billed"
	StatusExists        Status = "exists"
	StatusNoItems       Status = "no_items"
	StatusSent          Status = "sent"
	StatusSkipped       Status = "skipped"
	StatusFailed        Status = "failed"
)

// Outcome is the result for one contract or invoice.
type Outcome struct {
	ContractID string
	InvoiceID  string
	Status     Status
	Items      int // Ledger entries written or stamped
	Err        error
}

// Run collects the outcomes of one batch operation in processing order.
type Run struct {
	Outcomes []Outcome
}

func (r *Run) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count returns the number of outcomes with status s.
func (r Run) Count(s Status) int {
	return lo.CountBy(r.Outcomes, func(o Outcome) bool { return o.Status == s })
}

// Err joins the errors of all failed outcomes.
func (r Run) Err() error {
	return errors.Join(lo.FilterMap(r.Outcomes, func(o Outcome, _ int) (error, bool) {
		return o.Err, o.Status == StatusFailed && o.Err != nil
	})...)
}

// Filter narrows a batch run to one contract.
type Filter struct {
	IDOnly string
}

// ContractMail describes the mail sent with a contract.
type ContractMail struct {
	From     string
	Subject  string
	Company  string // Prefixed to the contract attachment name
	Template *template.Template
	Assets   string // Directory with per-item PDFs named "<description>.pdf"
	Policy   string // File in Assets attached to every contract mail, optional
}

// Deps are the collaborators of an Engine. Tracker, Mailer and Renderer may be
// nil when the operations needing them are not used.
type Deps struct {
	Contracts    *contract.Store
	Ledger       *ledger.Ledger
	Generator    *invoice.Generator
	Invoices     *invoice.Store
	Tracker      *dispatch.Tracker
	Mailer       services.Mailer
	Renderer     services.Renderer
	ContractMail ContractMail
	Now          func() time.Time
}

// Engine runs the batch operations over the workspace.
type Engine struct {
	contracts    *contract.Store
	ledger       *ledger.Ledger
	generator    *invoice.Generator
	invoices     *invoice.Store
	tracker      *dispatch.Tracker
	mailer       services.Mailer
	renderer     services.Renderer
	contractMail ContractMail
	now          func() time.Time
	log          zerolog.Logger
}

func New(d Deps) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ContractMail.Template == nil {
		d.ContractMail.Template = template.Must(template.New("contract_mail").Parse(DefaultContractTemplate))
	}
	return &Engine{
		contracts:    d.Contracts,
		ledger:       d.Ledger,
		generator:    d.Generator,
		invoices:     d.Invoices,
		tracker:      d.Tracker,
		mailer:       d.Mailer,
		renderer:     d.Renderer,
		contractMail: d.ContractMail,
		now:          d.Now,
		log:          logger.WithComponent("billing"),
	}
}

// selectContracts lists the contracts of a run. An explicit target that does not
// exist fails the whole run with contract.ErrNotFound. Contract files that fail
// to load are recorded as failed outcomes and the run goes on without them.
func (e *Engine) selectContracts(run *Run, filter Filter, activeAt *time.Time) ([]*models.Contract, error) {
	if filter.IDOnly != "" {
		e.log.Info().Msgf("Only processing %s", filter.IDOnly)
		if _, err := e.contracts.Get(filter.IDOnly); err != nil {
			return nil, err
		}
	}
	contracts, invalid, err := e.contracts.Scan(contract.Filter{ActiveAt: activeAt, IDOnly: filter.IDOnly})
	if err != nil {
		return nil, err
	}
	for _, bad := range invalid {
		e.fail(run, Outcome{ContractID: bad.ID}, bad)
	}
	return contracts, nil
}

func (e *Engine) fail(run *Run, o Outcome, err error) {
	o.Status = StatusFailed
	o.Err = err
	e.log.Error().Err(err).Str("cid", o.ContractID).Str("invoice", o.InvoiceID).Msg("Operation failed")
	run.add(o)
}

func interrupted(ctx context.Context, run Run) (Run, error) {
	return run, fmt.Errorf("batch interrupted: %w", ctx.Err())
}
