package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

type labels struct {
	invoice, contract                  string
	date, period, customer, start, end string
	pos, description, quantity, price  string
	subtotal, monthly, initial         string
	net, vat, gross                    string
	monthlyTotal, initialTotal, page   string
	closing                            string
}

var german = labels{
	invoice:      "Rechnung",
	contract:     "Vertrag",
	date:         "Datum",
	period:       "Zeitraum",
	customer:     "Kunde",
	start:        "Beginn",
	end:          "Ende",
	pos:          "Pos.",
	description:  "Beschreibung",
	quantity:     "Menge",
	price:        "Preis",
	subtotal:     "Summe",
	monthly:      "Monatlich",
	initial:      "Einmalig",
	net:          "Nettobetrag",
	vat:          "MwSt.",
	gross:        "Gesamtbetrag",
	monthlyTotal: "Summe monatlich",
	initialTotal: "Summe einmalig",
	page:         "Seite",
	closing:      "Bitte überweisen Sie den Gesamtbetrag unter Angabe der Rechnungsnummer %s.",
}

var english = labels{
	invoice:      "Invoice",
	contract:     "Contract",
	date:         "Date",
	period:       "Period",
	customer:     "Customer",
	start:        "Start",
	end:          "End",
	pos:          "Pos.",
	description:  "Description",
	quantity:     "Qty",
	price:        "Price",
	subtotal:     "Amount",
	monthly:      "Monthly",
	initial:      "One-time",
	net:          "Net amount",
	vat:          "VAT",
	gross:        "Total",
	monthlyTotal: "Monthly total",
	initialTotal: "One-time total",
	page:         "Page",
	closing:      "Please transfer the total, quoting invoice number %s.",
}

func labelsFor(locale string) labels {
	if locale == "en" {
		return english
	}
	return german
}

// FormatMoney formats amount with two decimals and the separators of locale:
// "1.234,56" for "de", "1,234.56" for "en".
func FormatMoney(amount decimal.Decimal, locale string) string {
	return group(amount.StringFixed(2), locale)
}

func formatQuantity(q decimal.Decimal, locale string) string {
	s := q.String()
	if locale != "en" {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func group(fixed, locale string) string {
	thousands, point := ".", ","
	if locale == "en" {
		thousands, point = ",", "."
	}

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(digit)
	}
	if frac != "" {
		b.WriteString(point)
		b.WriteString(frac)
	}
	return sign + b.String()
}
