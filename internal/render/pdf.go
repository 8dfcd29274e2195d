// Package render produces the PDF documents for invoices and contracts.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing/internal/logger"
	"billing/internal/storage"
	"billing/pkg/models"
)

var (
	colorPrimary     = [3]int{30, 58, 95}
	colorTextDark    = [3]int{44, 62, 80}
	colorTextMuted   = [3]int{127, 140, 141}
	colorTableHeader = [3]int{30, 58, 95}
	colorTableAlt    = [3]int{241, 245, 249}
	colorGridLine    = [3]int{220, 220, 220}
)

const fontFamily = "Arial"

// Config describes the issuing company.
type Config struct {
	Company    string   // Printed in the header and footer
	Sender     []string // Address lines of the company
	Locale     string   // "de" or "en"
	DateLayout string
}

// PDFRenderer writes invoice and contract documents with fpdf.
type PDFRenderer struct {
	cfg      Config
	labels   labels
	compress bool
	log      zerolog.Logger
}

func NewPDFRenderer(cfg Config) *PDFRenderer {
	if cfg.DateLayout == "" {
		cfg.DateLayout = "02.01.2006"
	}
	return &PDFRenderer{
		cfg:      cfg,
		labels:   labelsFor(cfg.Locale),
		compress: true,
		log:      logger.WithComponent("render"),
	}
}

// Exists reports whether a document was already rendered to path.
func Exists(path string) bool {
	return storage.Exists(path)
}

// RenderInvoice writes the invoice document to path.
func (r *PDFRenderer) RenderInvoice(inv *models.Invoice, path string) error {
	const op = "RenderInvoice"

	pdf, tr := r.newDocument()
	l := r.labels

	r.writeHeader(pdf, tr)
	r.writeAddress(pdf, tr, inv.Address)

	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, tr(l.invoice+" "+inv.ID), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	r.keyValue(pdf, tr, l.date, inv.Date)
	r.keyValue(pdf, tr, l.period, inv.Period)
	r.keyValue(pdf, tr, l.customer, inv.ContractID)
	pdf.Ln(6)

	widths := []float64{12, 98, 20, 20, 20}
	r.tableRow(pdf, tr, widths, []string{l.pos, l.description, l.quantity, l.price, l.subtotal}, true, false)
	for i, line := range inv.Items {
		r.tableRow(pdf, tr, widths, []string{
			fmt.Sprintf("%d", line.Item),
			line.Description,
			formatQuantity(line.Quantity, r.cfg.Locale),
			FormatMoney(line.Price, r.cfg.Locale),
			FormatMoney(line.Subtotal, r.cfg.Locale),
		}, false, i%2 == 1)
	}
	pdf.Ln(4)

	r.total(pdf, tr, l.net, inv.TotalNet, false)
	r.total(pdf, tr, fmt.Sprintf("%s %s %%", l.vat, inv.VAT.String()), inv.TotalVAT, false)
	r.total(pdf, tr, l.gross, inv.TotalGross, true)

	pdf.Ln(10)
	pdf.SetFont(fontFamily, "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf(l.closing, inv.ID)), "", "L", false)

	r.writeFooter(pdf, tr)
	return r.write(op, pdf, path)
}

// RenderContract writes the contract document to path.
func (r *PDFRenderer) RenderContract(c *models.Contract, path string) error {
	const op = "RenderContract"

	pdf, tr := r.newDocument()
	l := r.labels

	r.writeHeader(pdf, tr)
	r.writeAddress(pdf, tr, c.Address)

	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, tr(l.contract+" "+c.ID), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	r.keyValue(pdf, tr, l.customer, c.DisplayName())
	r.keyValue(pdf, tr, l.start, c.Start.Format(r.cfg.DateLayout))
	if c.End != nil {
		r.keyValue(pdf, tr, l.end, c.End.Format(r.cfg.DateLayout))
	}
	pdf.Ln(6)

	widths := []float64{12, 88, 20, 25, 25}
	r.tableRow(pdf, tr, widths, []string{l.pos, l.description, l.quantity, l.monthly, l.initial}, true, false)
	for i, item := range c.Items {
		r.tableRow(pdf, tr, widths, []string{
			fmt.Sprintf("%d", i+1),
			item.Description,
			formatQuantity(item.Quantity, r.cfg.Locale),
			FormatMoney(item.Price.Mul(item.Quantity).Round(2), r.cfg.Locale),
			FormatMoney(item.Initial, r.cfg.Locale),
		}, false, i%2 == 1)
	}
	pdf.Ln(4)

	r.total(pdf, tr, l.monthlyTotal, c.MonthlyTotal(), true)
	r.total(pdf, tr, l.initialTotal, c.InitialTotal(), false)

	r.writeFooter(pdf, tr)
	return r.write(op, pdf, path)
}

func (r *PDFRenderer) newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetCompression(r.compress)
	pdf.SetCreator(r.cfg.Company, true)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func (r *PDFRenderer) writeHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 6, "F")

	pdf.SetY(14)
	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 9, tr(r.cfg.Company), "", 1, "R", false, 0, "")

	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	for _, line := range r.cfg.Sender {
		pdf.CellFormat(0, 4.5, tr(line), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)
}

// writeAddress prints the recipient block with the sender line above it.
func (r *PDFRenderer) writeAddress(pdf *fpdf.Fpdf, tr func(string) string, address []string) {
	pdf.SetFont(fontFamily, "U", 7)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	sender := append([]string{r.cfg.Company}, r.cfg.Sender...)
	pdf.CellFormat(85, 4, tr(strings.Join(sender, " - ")), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	for _, line := range address {
		pdf.CellFormat(85, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(12)
}

func (r *PDFRenderer) keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(30, 5, tr(key+":"), "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 5, tr(value), "", 1, "L", false, 0, "")
}

func (r *PDFRenderer) tableRow(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cols []string, header, alt bool) {
	switch {
	case header:
		pdf.SetFont(fontFamily, "B", 9)
		pdf.SetFillColor(colorTableHeader[0], colorTableHeader[1], colorTableHeader[2])
		pdf.SetTextColor(255, 255, 255)
	case alt:
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	default:
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	}
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])

	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *PDFRenderer) total(pdf *fpdf.Fpdf, tr func(string) string, label string, amount decimal.Decimal, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(fontFamily, style, 10)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(130, 6, tr(label), "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, tr(FormatMoney(amount, r.cfg.Locale)+" €"), "", 1, "R", false, 0, "")
}

func (r *PDFRenderer) writeFooter(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetAutoPageBreak(false, 0)
	pageWidth, pageHeight := pdf.GetPageSize()

	for i := 1; i <= pdf.PageCount(); i++ {
		pdf.SetPage(i)
		pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pageHeight-20, pageWidth-20, pageHeight-20)

		pdf.SetY(pageHeight - 17)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s - %s %d/%d", r.cfg.Company, r.labels.page, i, pdf.PageCount())), "", 0, "C", false, 0, "")
	}
}

func (r *PDFRenderer) write(op string, pdf *fpdf.Fpdf, path string) error {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("%s: PDF output error: %w", op, err)
	}
	if err := storage.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.log.Debug().Str("path", path).Int("bytes", buf.Len()).Msg("Rendered document")
	return nil
}
