// Package output provides utilities for formatting and displaying tax results.
// It only reads results; amounts are rounded for display and never written
// back.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/format"
	"github.com/iwvelando/progressive-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// Printer renders human-readable tables with locale-aware number grouping.
// Amounts are formatted from their exact decimal digits; the locale only
// supplies the separators.
type Printer struct {
	w     io.Writer
	group string
	point string
}

// NewPrinter creates a Printer writing to w. An empty or unknown locale falls
// back to English.
func NewPrinter(w io.Writer, locale string) *Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.English
	}
	group, point := separators(message.NewPrinter(tag))
	return &Printer{w: w, group: group, point: point}
}

// separators reads the grouping and decimal separators of a locale from a
// sample number rendered by its printer.
func separators(p *message.Printer) (group, point string) {
	const fallbackGroup, fallbackPoint = ",", "."

	// "1<group>234<group>567<point>5"
	rest, ok := strings.CutPrefix(p.Sprintf("%.1f", 1234567.5), "1")
	if !ok {
		return fallbackGroup, fallbackPoint
	}
	i := strings.Index(rest, "234")
	if i < 0 {
		return fallbackGroup, fallbackPoint
	}
	group = rest[:i]
	tail, ok := strings.CutPrefix(strings.TrimPrefix(rest[i+3:], group), "567")
	if !ok {
		return fallbackGroup, fallbackPoint
	}
	point = strings.TrimSuffix(tail, "5")
	if point == "" {
		point = fallbackPoint
	}
	return group, point
}

func (pr *Printer) number(value decimal.Decimal, places int32) string {
	rounded := value.Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + format.Grouped(rounded.Abs().StringFixed(places), pr.group, pr.point)
}

func (pr *Printer) money(amount decimal.Decimal) string {
	return pr.number(amount, constants.CurrencyPlaces) + " " + constants.CurrencySymbol
}

func (pr *Printer) rate(fraction decimal.Decimal) string {
	return pr.number(mathutil.Percentage(fraction), constants.RatePlaces) + "%"
}

// change renders a year-over-year difference as "+228.00 $ (+3.10%)".
func (pr *Printer) change(c tax.YearChange) string {
	if !c.HasPrevious {
		return "N/A"
	}
	return signed(pr.money(c.Difference)) + " (" + signed(pr.rate(c.Rate)) + ")"
}

func signed(value string) string {
	if strings.HasPrefix(value, "-") {
		return value
	}
	return "+" + value
}

// Scenarios prints one summary and bracket table per outcome.
func (pr *Printer) Scenarios(outcomes []scenario.Outcome) {
	for i, outcome := range outcomes {
		pr.Result(fmt.Sprintf("%s (%d)", outcome.Name, outcome.Result.Input.Year), outcome.Result)
		if i < len(outcomes)-1 {
			fmt.Fprintf(pr.w, "\n")
		}
	}
	if len(outcomes) > 1 {
		fmt.Fprintf(pr.w, "\n")
		pr.comparison(outcomes)
	}
}

// Result prints the summary and per-bracket breakdown of one calculation.
func (pr *Printer) Result(title string, result *tax.Result) {
	in := result.Input
	fmt.Fprintf(pr.w, "--- Results for scenario %s ---\n", title)
	rows := [][2]string{
		{"Gross income", pr.money(in.GrossIncome)},
		{"Deductions", pr.money(in.Deductions)},
		{"Credits", pr.money(in.Credits)},
		{"Taxable income", pr.money(result.TaxableIncome)},
		{"Gross tax", pr.money(result.GrossTax)},
		{"Net tax", pr.money(result.NetTax)},
		{"Net income", pr.money(result.NetIncome)},
		{"Effective rate", pr.rate(result.EffectiveRate)},
		{"Marginal rate", format.RateLabel(result.MarginalRate)},
	}
	for _, row := range rows {
		fmt.Fprintf(pr.w, "%-16s | %s\n", row[0], row[1])
	}

	fmt.Fprintf(pr.w, "\n%-24s | %-4s | %-16s | %s\n", "Bracket", "Rate", "Taxable income", "Tax")
	fmt.Fprintf(pr.w, "%-24s | %-4s | %-16s | %s\n", "_______", "____", "______________", "___")
	for _, c := range result.Breakdown() {
		fmt.Fprintf(pr.w, "%-24s | %-4s | %-16s | %s\n",
			format.BracketRange(c.Lower, c.Upper),
			format.RateLabel(c.Rate),
			pr.money(c.IncomeInBracket),
			pr.money(c.TaxInBracket),
		)
	}
}

func (pr *Printer) comparison(outcomes []scenario.Outcome) {
	fmt.Fprintf(pr.w, "--- Scenario comparison ---\n")
	fmt.Fprintf(pr.w, "%-20s | %-16s | %-16s | %-9s | %s\n", "Scenario", "Gross income", "Net tax", "Effective", "Marginal")
	fmt.Fprintf(pr.w, "%-20s | %-16s | %-16s | %-9s | %s\n", "________", "____________", "_______", "_________", "________")
	for _, outcome := range outcomes {
		r := outcome.Result
		fmt.Fprintf(pr.w, "%-20s | %-16s | %-16s | %-9s | %s\n",
			outcome.Name,
			pr.money(r.Input.GrossIncome),
			pr.money(r.NetTax),
			pr.rate(r.EffectiveRate),
			format.RateLabel(r.MarginalRate),
		)
	}
}

// History prints one row per year, with the change in net tax against the
// previous year.
func (pr *Printer) History(history *scenario.History) {
	if history == nil || len(history.Years) == 0 {
		return
	}
	first := history.Results[history.Years[0]].Input
	fmt.Fprintf(pr.w, "--- Historical comparison for %s ---\n", pr.money(first.GrossIncome))
	fmt.Fprintf(pr.w, "%-4s | %-16s | %-16s | %-9s | %-8s | %s\n", "Year", "Taxable income", "Net tax", "Effective", "Marginal", "Change vs previous year")
	fmt.Fprintf(pr.w, "%-4s | %-16s | %-16s | %-9s | %-8s | %s\n", "____", "______________", "_______", "_________", "________", "_______________________")
	for _, c := range history.Changes() {
		r := history.Results[c.Year]
		fmt.Fprintf(pr.w, "%-4d | %-16s | %-16s | %-9s | %-8s | %s\n",
			c.Year,
			pr.money(r.TaxableIncome),
			pr.money(r.NetTax),
			pr.rate(r.EffectiveRate),
			format.RateLabel(r.MarginalRate),
			pr.change(c),
		)
	}
}

// Brackets prints a year's bracket table.
func (pr *Printer) Brackets(year int, seq []brackets.Bracket) {
	fmt.Fprintf(pr.w, "--- Brackets for %d ---\n", year)
	fmt.Fprintf(pr.w, "%-24s | %s\n", "Bracket", "Rate")
	fmt.Fprintf(pr.w, "%-24s | %s\n", "_______", "____")
	for _, b := range seq {
		fmt.Fprintf(pr.w, "%-24s | %s\n", format.BracketRange(b.Lower, b.Upper), format.RateLabel(b.Rate))
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(outcomes []scenario.Outcome) {
	NewPrinter(os.Stdout, DefaultLocale).Scenarios(outcomes)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(outcomes []scenario.Outcome) error {
	return WriteCSV(os.Stdout, outcomes)
}

// WriteCSV writes the per-bracket rows of every outcome as CSV. Amounts are
// rounded to cents; summary rows use an empty bracket column.
func WriteCSV(out io.Writer, outcomes []scenario.Outcome) error {
	rows := [][]string{{"scenario", "year", "bracket", "rate", "taxable income", "tax"}}
	for _, outcome := range outcomes {
		r := outcome.Result
		year := strconv.Itoa(r.Input.Year)
		for _, c := range r.Contributions {
			rows = append(rows, []string{
				outcome.Name,
				year,
				format.BracketRange(c.Lower, c.Upper),
				c.Rate.String(),
				fixed(c.IncomeInBracket),
				fixed(c.TaxInBracket),
			})
		}
		rows = append(rows, []string{outcome.Name, year, "", r.MarginalRate.String(), fixed(r.TaxableIncome), fixed(r.NetTax)})
	}
	return writeRecords(out, rows)
}

// WriteHistoryCSV writes one CSV row per year of a history comparison. The
// change columns are empty on the earliest year.
func WriteHistoryCSV(out io.Writer, history *scenario.History) error {
	rows := [][]string{{
		"year", "gross income", "taxable income", "gross tax", "net tax",
		"effective rate", "marginal rate", "net tax change", "net tax change rate",
	}}
	for _, c := range history.Changes() {
		r := history.Results[c.Year]
		difference, rate := "", ""
		if c.HasPrevious {
			difference = fixed(c.Difference)
			rate = c.Rate.Round(6).String()
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Year),
			fixed(r.Input.GrossIncome),
			fixed(r.TaxableIncome),
			fixed(r.GrossTax),
			fixed(r.NetTax),
			r.EffectiveRate.Round(6).String(),
			r.MarginalRate.String(),
			difference,
			rate,
		})
	}
	return writeRecords(out, rows)
}

// WriteBracketsCSV writes a year's bracket table as CSV. The upper bound of
// the top bracket is left empty.
func WriteBracketsCSV(out io.Writer, year int, seq []brackets.Bracket) error {
	rows := [][]string{{"year", "lower", "upper", "rate"}}
	for _, b := range seq {
		upper := ""
		if b.Upper != nil {
			upper = b.Upper.String()
		}
		rows = append(rows, []string{strconv.Itoa(year), b.Lower.String(), upper, b.Rate.String()})
	}
	return writeRecords(out, rows)
}

// CsvString returns WriteCSV's output as a string.
func CsvString(outcomes []scenario.Outcome) (string, error) {
	var sb strings.Builder
	err := WriteCSV(&sb, outcomes)
	return sb.String(), err
}

// HistoryCsvString returns WriteHistoryCSV's output as a string.
func HistoryCsvString(history *scenario.History) (string, error) {
	var sb strings.Builder
	err := WriteHistoryCSV(&sb, history)
	return sb.String(), err
}

// BracketsCsvString returns WriteBracketsCSV's output as a string.
func BracketsCsvString(year int, seq []brackets.Bracket) (string, error) {
	var sb strings.Builder
	err := WriteBracketsCSV(&sb, year, seq)
	return sb.String(), err
}

func writeRecords(out io.Writer, rows [][]string) error {
	w := csv.NewWriter(out)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func fixed(amount decimal.Decimal) string {
	return mathutil.Round(amount).StringFixed(constants.CurrencyPlaces)
}
