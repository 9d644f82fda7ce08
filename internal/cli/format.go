package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"binary-trader/internal/models"
)

// FormatMoney formats a monetary amount with thousands separators and
// two decimal places.
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	str := amount.Abs().StringFixed(2)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	result := "$" + strings.Join(groups, ",") + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent formats a capital fraction as a percentage.
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// FormatPnL formats P&L with sign.
func FormatPnL(pnl decimal.Decimal) string {
	formatted := FormatMoney(pnl)
	if pnl.IsPositive() {
		return "+" + formatted
	}
	return formatted
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(models.DateFormat)
}

// FormatDateTime formats a datetime in a location.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04:05")
}

// FormatResult renders a trade result as win/loss wording.
func FormatResult(result models.Result) string {
	switch result {
	case models.ResultITM:
		return "ITM (win)"
	case models.ResultOTM:
		return "OTM (loss)"
	}
	return string(result)
}

// TruncateString truncates a string to max length with ellipsis.
// Length counts runes so a multi-byte character is never cut in half.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatStep renders a martingale step as "step/max".
func FormatStep(step, max int) string {
	return fmt.Sprintf("%d/%d", step, max)
}
