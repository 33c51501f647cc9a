package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Dan9191/mortgage-service/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders numbers with the grouping rules of a locale
type Formatter struct {
	printer *message.Printer
	symbol  string
	group   rune
	decimal rune
}

// NewFormatter creates a formatter for a BCP 47 locale such as "ru" or "en-US"
func NewFormatter(locale, currencySymbol string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("failed to parse locale %q: %w", locale, err)
	}
	f := &Formatter{printer: message.NewPrinter(tag), symbol: currencySymbol}
	f.group, f.decimal = separators(f.printer)
	return f, nil
}

// separators reads the grouping and decimal marks the printer writes.
// group is 0 when the locale does not group digits.
func separators(p *message.Printer) (group, decimal rune) {
	var marks []rune
	for _, r := range p.Sprint(number.Decimal(1_234_567.5, number.MinFractionDigits(1))) {
		if !unicode.IsDigit(r) {
			marks = append(marks, r)
		}
	}
	decimal = '.'
	if len(marks) > 0 {
		decimal = marks[len(marks)-1]
	}
	if len(marks) > 1 {
		group = marks[0]
	}
	return group, decimal
}

// ParseNumber reads a number typed in the formatter's locale, so that text
// produced by Number parses back to the same value. Whitespace and the
// locale's grouping mark are skipped. Anything else unparsable yields NaN.
func (f *Formatter) ParseNumber(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r), r == f.group, r == '_':
		case r == f.decimal:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Number formats v rounded to a whole number with locale grouping
func (f *Formatter) Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return f.printer.Sprintf("%d", int64(math.Round(v)))
}

// Money formats v as a whole amount followed by the currency symbol
func (f *Formatter) Money(v float64) string {
	if f.symbol == "" {
		return f.Number(v)
	}
	return f.Number(v) + " " + f.symbol
}

// Percent formats a percentage value (10 for 10%) with up to two fraction digits
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2))) + "%"
}

// Rendered holds the text of every result node
type Rendered struct {
	Percent      string `json:"percent"`
	MonthPayment string `json:"monthPayment"`
	OverPayment  string `json:"overPayment"`
	TotalAmount  string `json:"totalAmount"`
}

// View projects a loan result onto text nodes
type View struct {
	format *Formatter
}

// NewView creates a results view
func NewView(f *Formatter) *View {
	return &View{format: f}
}

// Formatter returns the formatter used by the view
func (v *View) Formatter() *Formatter {
	return v.format
}

// Render formats every result field
func (v *View) Render(res models.LoanResult) Rendered {
	return Rendered{
		Percent:      v.format.Percent(res.RatePercent),
		MonthPayment: v.format.Money(res.MonthlyPayment),
		OverPayment:  v.format.Money(res.TotalInterestPaid),
		TotalAmount:  v.format.Money(res.PrincipalFinanced),
	}
}
