package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/pkg/format"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// US Letter in points.
const (
	pageWidth  = 612
	pageHeight = 792
	margin     = 72
)

// Fixed object numbers; page i uses 6+2i for its content stream and 7+2i for
// the page itself.
const (
	catalogObject = 1
	pagesObject   = 2
	regularFont   = 3
	boldFont      = 4
	infoObject    = 5
	firstPage     = 6
)

// WritePDF writes a report with one page per outcome: the summary of the
// calculation followed by its per-bracket breakdown. Amounts are rounded to
// cents exactly as in the text report.
func WritePDF(w io.Writer, outcomes []scenario.Outcome, generated time.Time) error {
	if len(outcomes) == 0 {
		return errors.New("no results to report")
	}

	doc := &pdfDocument{}
	doc.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(outcomes))
	for i := range outcomes {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i+1)
	}

	doc.object(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObject))
	doc.object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(outcomes)))
	doc.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	doc.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")
	doc.object(fmt.Sprintf("<< /Title %s /Producer (progressive-tax) /CreationDate (D:%s) >>",
		pdfString("Income tax report"), generated.UTC().Format("20060102150405Z")))

	for i, outcome := range outcomes {
		content := reportPage(outcome, generated)
		doc.object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		doc.object(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %d %d] "+
			"/Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObject, pageWidth, pageHeight, regularFont, boldFont, firstPage+2*i))
	}

	doc.finish()
	if _, err := w.Write(doc.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// reportPage builds the content stream of one outcome's page.
func reportPage(outcome scenario.Outcome, generated time.Time) string {
	r := outcome.Result
	in := r.Input
	page := &pdfPage{y: pageHeight - margin}

	page.text("F2", 18, margin, fmt.Sprintf("Income tax report: %s (%d)", outcome.Name, in.Year))
	page.down(20)
	page.text("F1", 10, margin, "Generated on "+generated.Format("2006-01-02 15:04"))
	page.down(30)

	page.row("F2", 11, []float64{margin, 300}, "Metric", "Value")
	page.rule(3)
	for _, row := range [][2]string{
		{"Gross income", format.Currency(in.GrossIncome)},
		{"Total deductions", format.Currency(in.Deductions)},
		{"Tax credits", format.Currency(in.Credits)},
		{"Taxable income", format.Currency(r.TaxableIncome)},
		{"Gross tax", format.Currency(r.GrossTax)},
		{"Total tax owed", format.Currency(r.NetTax)},
		{"Effective rate", format.Percent(r.EffectiveRate)},
		{"Marginal rate", format.RateLabel(r.MarginalRate)},
		{"Net income", format.Currency(r.NetIncome)},
	} {
		page.row("F1", 11, []float64{margin, 300}, row[0], row[1])
	}

	page.down(20)
	page.text("F2", 13, margin, "Breakdown by bracket")
	page.down(22)
	columns := []float64{margin, 260, 320, 450}
	page.row("F2", 11, columns, "Bracket", "Rate", "Taxable income", "Tax")
	page.rule(3)
	for _, c := range r.Breakdown() {
		page.row("F1", 11, columns,
			format.BracketRange(c.Lower, c.Upper),
			format.RateLabel(c.Rate),
			format.Currency(c.IncomeInBracket),
			format.Currency(c.TaxInBracket),
		)
	}
	return strings.TrimSuffix(page.buf.String(), "\n")
}

type pdfPage struct {
	buf strings.Builder
	y   float64
}

func (p *pdfPage) down(points float64) {
	p.y -= points
}

func (p *pdfPage) text(font string, size, x float64, s string) {
	fmt.Fprintf(&p.buf, "BT /%s %g Tf %g %g Td %s Tj ET\n", font, size, x, p.y, pdfString(s))
}

func (p *pdfPage) row(font string, size float64, columns []float64, cells ...string) {
	for i, cell := range cells {
		p.text(font, size, columns[i], cell)
	}
	p.down(size + 6)
}

// rule draws a line across the page just under the previous row.
func (p *pdfPage) rule(gap float64) {
	y := p.y + 11 + gap
	fmt.Fprintf(&p.buf, "0.5 w %g %g m %g %g l S\n", float64(margin), y, float64(pageWidth-margin), y)
}

type pdfDocument struct {
	buf bytes.Buffer
	// offsets[i] is the byte offset of object i+1.
	offsets []int
}

func (d *pdfDocument) object(body string) {
	d.offsets = append(d.offsets, d.buf.Len())
	fmt.Fprintf(&d.buf, "%d 0 obj\n%s\nendobj\n", len(d.offsets), body)
}

// finish appends the cross-reference table and trailer.
func (d *pdfDocument) finish() {
	start := d.buf.Len()
	fmt.Fprintf(&d.buf, "xref\n0 %d\n0000000000 65535 f \n", len(d.offsets)+1)
	for _, offset := range d.offsets {
		fmt.Fprintf(&d.buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&d.buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(d.offsets)+1, catalogObject, infoObject, start)
}

// pdfString encodes s as a WinAnsi literal string. Characters outside
// Windows-1252 are replaced; bytes outside printable ASCII are written as
// octal escapes.
func pdfString(s string) string {
	encoded, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(s)
	if err != nil {
		encoded = s
	}

	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}
