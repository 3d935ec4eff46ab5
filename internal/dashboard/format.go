package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"scanguard/internal/models"
)

// InvalidDate is shown for timestamps that cannot be parsed.
const InvalidDate = "Invalid Date"

// Formatter turns snapshot values into display strings.
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
}

// NewFormatter builds a formatter for a BCP 47 locale and a display zone.
func NewFormatter(locale string, loc *time.Location) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{printer: message.NewPrinter(tag), loc: loc}, nil
}

// Count formats a counter with the locale's grouping separators. Backends
// may serialise counts as floats (100.0, 1e3); integral values print
// without a fraction, anything else keeps up to three decimals.
func (f *Formatter) Count(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
		return f.printer.Sprintf("%d", int64(n))
	}
	return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}

// TimeOfDay renders the local wall-clock time of a backend timestamp.
func (f *Formatter) TimeOfDay(raw string) string {
	ts, err := models.ParseTimestamp(raw, f.loc)
	if err != nil {
		return InvalidDate
	}
	return ts.In(f.loc).Format("15:04:05")
}

// Number prints v in its shortest round-trip decimal form, so 7 stays "7"
// and 45.3 stays "45.3".
func Number(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WithUnit appends a literal unit suffix to a number.
func WithUnit(v float64, unit string) string {
	return Number(v) + unit
}
