// Package receipt renders a sale as a printable plain-text receipt.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"pharmadesk/m/domain"
)

const (
	width    = 44
	walkIn   = "Walk-in Customer"
	idDigits = 6
)

var locale = language.MustParse("en-IN")

// ShortID is the trailing part of a sale id shown to customers.
func ShortID(id string) string {
	if len(id) <= idDigits {
		return id
	}
	return id[len(id)-idDigits:]
}

type printer struct {
	*message.Printer
}

// amount groups the rupees for the locale and appends the paise taken
// from the fixed-point string, so no digit passes through a float.
func (p printer) amount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	rupees := d.Round(2).Truncate(0).IntPart()
	return sign + p.Sprintf("₹%v", number.Decimal(rupees)) + fixed[len(fixed)-3:]
}

// Write renders sale to w under the given shop name.
func Write(w io.Writer, shop string, sale domain.Sale) error {
	p := printer{message.NewPrinter(locale)}
	rule := strings.Repeat("-", width)

	var b bytes.Buffer
	if shop != "" {
		fmt.Fprintln(&b, shop)
	}
	fmt.Fprintf(&b, "Receipt #%s\n", ShortID(sale.ID))
	fmt.Fprintf(&b, "Date: %s %s\n", sale.Date, sale.Time)
	customer := sale.CustomerName
	if customer == "" {
		customer = walkIn
	}
	fmt.Fprintf(&b, "Customer: %s\n", customer)
	fmt.Fprintln(&b, rule)
	for _, item := range sale.Items {
		fmt.Fprintln(&b, item.MedicineName)
		line := fmt.Sprintf("  %d x %s", item.Quantity, p.amount(item.Price))
		fmt.Fprintln(&b, pad(line, p.amount(item.Total)))
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, pad("Subtotal", p.amount(sale.Total)))
	if !sale.Discount.IsZero() {
		fmt.Fprintln(&b, pad("Discount", "-"+p.amount(sale.Discount)))
	}
	fmt.Fprintln(&b, pad("Total", p.amount(sale.FinalTotal)))
	fmt.Fprintf(&b, "Paid by: %s\n", strings.ToUpper(string(sale.PaymentMethod)))

	_, err := w.Write(b.Bytes())
	return err
}

// pad right-aligns right against the receipt width.
func pad(left, right string) string {
	gap := width - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
