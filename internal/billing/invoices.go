package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billing/internal/invoice"
	"billing/internal/ledger"
	"billing/internal/logger"
	"billing/pkg/models"
)

// BillItems appends the items of every contract active in year/month to its
// ledger. Periods billed before are reported as already_billed and left alone.
func (e *Engine) BillItems(ctx context.Context, year int, month time.Month, filter Filter, dry bool) (Run, error) {
	const op = "BillItems"

	var run Run
	key := ledger.MonthKey(year, month)
	if _, err := ledger.ParseKey(key); err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}
	e.log.Info().Str("key", key).Bool("dry", dry).Msgf("Billing items for month %d in %d.", month, year)

	activeAt := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	contracts, err := e.selectContracts(&run, filter, &activeAt)
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, c := range contracts {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}

		o := Outcome{ContractID: c.ID}
		result, err := e.ledger.BillPeriod(c, key, dry)
		if err != nil {
			e.fail(&run, o, err)
			continue
		}

		o.Status = StatusAlreadyBilled
		if result.Created {
			o.Status = StatusCreated
			o.Items = len(result.Items)
		}
		run.add(o)
	}
	return run, nil
}

// CreateInvoices stores one invoice per active contract covering period. With
// force existing invoices are regenerated; their sent flag is kept.
func (e *Engine) CreateInvoices(ctx context.Context, period invoice.Period, filter Filter, force bool) (Run, error) {
	const op = "CreateInvoices"

	var run Run
	if err := period.Validate(); err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}
	if force {
		e.log.Info().Msg("Force create enabled")
	}

	activeAt := period.Start()
	contracts, err := e.selectContracts(&run, filter, &activeAt)
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	supplier := invoice.PeriodLines{Period: period}
	for _, c := range contracts {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}

		o := Outcome{ContractID: c.ID}
		inv, err := e.generator.Generate(c, supplier, e.now())
		if err != nil {
			if errors.Is(err, invoice.ErrNoBillableLines) {
				o.Status = StatusNoItems
				run.add(o)
				continue
			}
			e.fail(&run, o, err)
			continue
		}
		o.InvoiceID = inv.ID
		e.log.Info().Str("cid", c.ID).Msgf("Creating invoice %s", inv.ID)

		result, err := e.invoices.Save(inv, invoice.SaveOptions{Force: force})
		if err != nil {
			e.fail(&run, o, err)
			continue
		}
		o.Status = StatusExists
		if result.Written {
			o.Status = StatusCreated
		}
		run.add(o)
	}
	return run, nil
}

// CreateBilledInvoices turns the unbilled ledger entries of every contract into
// an invoice with id "<cid>.<suffix>". The ledger stamp is committed only after
// the invoice was written.
func (e *Engine) CreateBilledInvoices(ctx context.Context, suffix string, filter Filter, force bool) (Run, error) {
	const op = "CreateBilledInvoices"

	var run Run
	if force {
		e.log.Info().Msg("Force create enabled")
	}

	contracts, err := e.selectContracts(&run, filter, nil)
	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, c := range contracts {
		if ctx.Err() != nil {
			return interrupted(ctx, run)
		}
		run.add(e.createBilledInvoice(c, suffix, force))
	}
	return run, nil
}

func (e *Engine) createBilledInvoice(c *models.Contract, suffix string, force bool) Outcome {
	o := Outcome{ContractID: c.ID, InvoiceID: c.ID + "." + suffix}
	log := logger.WithContract("billing", c.ID)
	failed := func(err error) Outcome {
		o.Status = StatusFailed
		o.Err = err
		log.Error().Err(err).Str("invoice", o.InvoiceID).Msg("Operation failed")
		return o
	}

	if _, err := e.ledger.Recover(c.ID, e.invoiceLists); err != nil {
		return failed(err)
	}

	lines := invoice.LedgerLines{Source: e.ledger, Suffix: suffix, Reissue: force}
	inv, err := e.generator.Generate(c, lines, e.now())
	if err != nil {
		if errors.Is(err, invoice.ErrNoBillableLines) {
			log.Info().Msgf("No unbilled items found for %s", c.ID)
			o.Status = StatusNoItems
			return o
		}
		return failed(err)
	}

	if e.invoices.Exists(inv.ID) && !force {
		log.Info().Str("invoice", inv.ID).Msgf("Invoice %s already exists.", inv.ID)
		o.Status = StatusExists
		return o
	}

	log.Info().Msgf("Creating billed invoice %s", inv.ID)
	staged, err := e.ledger.Stage(c.ID, inv.ID)
	if errors.Is(err, ledger.ErrNothingToStage) {
		// Reissue of entries stamped before, the ledger stays as it is.
		if _, err := e.invoices.Save(inv, invoice.SaveOptions{Force: force}); err != nil {
			return failed(err)
		}
		o.Status = StatusCreated
		return o
	}
	if err != nil {
		return failed(err)
	}

	result, err := e.invoices.Save(inv, invoice.SaveOptions{Force: force})
	if err != nil {
		return failed(errors.Join(err, staged.Abort()))
	}
	if !result.Written {
		if err := staged.Abort(); err != nil {
			return failed(err)
		}
		o.Status = StatusExists
		return o
	}

	if err := staged.Commit(); err != nil {
		// The invoice is stored, the next run's Recover commits the stamp.
		return failed(err)
	}
	o.Status = StatusCreated
	o.Items = len(staged.Items)
	return o
}

// invoiceLists reports whether the stored invoice id lists every ledger entry in
// items.
func (e *Engine) invoiceLists(id string, items []models.BilledItem) bool {
	inv, err := e.invoices.Load(id)
	if err != nil {
		return false
	}
	return invoice.Covers(inv, items)
}
