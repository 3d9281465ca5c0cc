// Package money formats abstract base-unit amounts for display. It does no
// currency conversion.
package money

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders an amount for people.
type Formatter func(amount float64) string

// NewFormatter returns a formatter that prefixes symbol and prints two
// decimals with English digit grouping, e.g. "$1,234.50".
func NewFormatter(symbol string) Formatter {
	printer := message.NewPrinter(language.English)
	return func(amount float64) string {
		if amount < 0 {
			return "-" + symbol + printer.Sprintf("%.2f", -amount)
		}
		return symbol + printer.Sprintf("%.2f", amount)
	}
}

// Plain prints two decimals without a symbol or grouping. Machine-read
// exports use it.
func Plain(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
