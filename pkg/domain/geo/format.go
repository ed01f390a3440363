package geo

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders the navigation status panel strings in a display locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale tag. Unknown tags fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// RouteDistance formats a freshly fetched route length, given in meters, with one decimal.
func (f *Formatter) RouteDistance(meters float64) string {
	return f.printer.Sprintf("%.1f km", meters/1000)
}

// RemainingDistance formats the remaining route length during navigation with two decimals.
func (f *Formatter) RemainingDistance(km float64) string {
	return f.printer.Sprintf("%.2f km", km)
}

// Duration formats a duration in seconds as whole minutes.
func (f *Formatter) Duration(seconds float64) string {
	return f.printer.Sprintf("%d min", int(math.Round(seconds/60)))
}
