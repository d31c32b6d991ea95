package monitor

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown wherever a value could not be loaded or derived.
const Placeholder = "--"

const unitScale = 1000

// MWToKW converts megawatts to kilowatts rounded to the nearest integer.
func MWToKW(mw float64) int64 {
	return int64(math.Round(mw * unitScale))
}

// ScaleUp converts MW to kW or MWh to kWh without rounding.
func ScaleUp(v float64) float64 {
	return v * unitScale
}

// Efficiency is current output as a percentage of installed capacity.
// ok is false when either side is unknown, capacity is zero, or the
// result is not finite.
func Efficiency(current, capacity OptionalFloat) (pct float64, ok bool) {
	if !current.Usable() || !capacity.Usable() || capacity.Value == 0 {
		return 0, false
	}
	pct = current.Value / capacity.Value * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}

// FormatEfficiency renders the percentage with one decimal or the placeholder.
func FormatEfficiency(current, capacity OptionalFloat) string {
	pct, ok := Efficiency(current, capacity)
	if !ok {
		return Placeholder
	}
	return strconv.FormatFloat(pct, 'f', 1, 64)
}

// FormatFixed renders v with the given decimals, or the placeholder when unusable.
func FormatFixed(v OptionalFloat, decimals int) string {
	if !v.Usable() {
		return Placeholder
	}
	return strconv.FormatFloat(v.Value, 'f', decimals, 64)
}

// NumberFormatter groups digits the way the viewer's locale expects.
type NumberFormatter struct {
	printer *message.Printer
}

// NewNumberFormatter builds a formatter for a BCP 47 locale; unknown tags fall back to Korean.
func NewNumberFormatter(locale string) NumberFormatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.Korean
	}
	return NumberFormatter{printer: message.NewPrinter(tag)}
}

// Integer renders n with thousands separators.
func (f NumberFormatter) Integer(n int64) string {
	if f.printer == nil {
		f = NewNumberFormatter("")
	}
	return f.printer.Sprintf("%d", n)
}

// KW renders a grouped kilowatt figure from a megawatt value.
func (f NumberFormatter) KW(mw OptionalFloat) string {
	if !mw.Usable() {
		return Placeholder
	}
	return f.Integer(MWToKW(mw.Value))
}
