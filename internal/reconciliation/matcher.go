package reconciliation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"billing/internal/logger"
	"billing/pkg/models"
)

// Matcher assigns payments to contracts by the invoice ids in their subject.
type Matcher struct {
	log zerolog.Logger
}

func NewMatcher() *Matcher {
	return &Matcher{log: logger.WithComponent("matcher")}
}

// Assign sets the CID of every unassigned incoming entry whose subject names
// invoices of exactly one contract. It returns the number of assigned entries.
func (m *Matcher) Assign(entries []models.PaymentEntry, invoices []*models.Invoice) int {
	assigned := 0
	for i := range entries {
		entry := &entries[i]
		if entry.CID != "" || !IsIncoming(*entry) {
			continue
		}

		subject := strings.ToLower(entry.Subject)
		matches := lo.Filter(invoices, func(inv *models.Invoice, _ int) bool {
			return mentions(subject, strings.ToLower(inv.ID))
		})
		cids := lo.Uniq(lo.Map(matches, func(inv *models.Invoice, _ int) string { return inv.ContractID }))

		switch len(cids) {
		case 0:
			continue
		case 1:
			entry.CID = cids[0]
			assigned++
			m.log.Debug().Str("cid", entry.CID).Str("subject", entry.Subject).Msg("Assigned payment")
		default:
			m.log.Warn().Strs("contracts", cids).Str("subject", entry.Subject).Msg("Ambiguous payment subject")
		}
	}
	return assigned
}

// mentions reports whether id occurs in subject as a whole word. "1000.2019.10"
// is not mentioned by "11000.2019.10" or "1000.2019.101".
func mentions(subject, id string) bool {
	if id == "" {
		return false
	}
	for from := 0; from < len(subject); {
		i := strings.Index(subject[from:], id)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(id)
		if !wordBefore(subject[:start]) && !wordAfter(subject[end:]) {
			return true
		}
		from = start + 1
	}
	return false
}

func wordBefore(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || isWordRune(r)
}

// wordAfter allows a trailing full stop.
func wordAfter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	if r == '.' {
		r, _ = utf8.DecodeRuneInString(s[size:])
	}
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
