package cli

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Property: FormatMoney always produces a dollar amount with comma
// grouping and two decimal places, and parses back to the same value.
func TestProperty_MoneyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	groupedPattern := regexp.MustCompile(`^\d{1,3}(,\d{3})*$`)

	properties.Property("FormatMoney produces grouped dollar format", prop.ForAll(
		func(amount float64) bool {
			d := decimal.NewFromFloat(amount).Round(2)
			formatted := FormatMoney(d)

			if d.IsNegative() {
				if !strings.HasPrefix(formatted, "-$") {
					t.Logf("Expected -$ prefix for %s, got %s", d, formatted)
					return false
				}
			} else if !strings.HasPrefix(formatted, "$") {
				t.Logf("Expected $ prefix for %s, got %s", d, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %s, got %s", d, formatted)
				return false
			}

			numPart := strings.TrimPrefix(strings.TrimPrefix(parts[0], "-"), "$")
			if !groupedPattern.MatchString(numPart) {
				t.Logf("Bad grouping for %s: %s", d, formatted)
				return false
			}

			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatMoney preserves value", prop.ForAll(
		func(amount float64) bool {
			d := decimal.NewFromFloat(amount).Round(2)
			formatted := FormatMoney(d)

			cleaned := strings.NewReplacer("$", "", ",", "").Replace(formatted)
			parsed, err := decimal.NewFromString(cleaned)
			if err != nil {
				t.Logf("Unparseable output for %s: %s", d, formatted)
				return false
			}
			return parsed.Equal(d)
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// Property: TruncateString never exceeds the limit and leaves short
// strings untouched.
func TestProperty_TruncateString(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("TruncateString respects max length", prop.ForAll(
		func(s string, maxLen int) bool {
			truncated := TruncateString(s, maxLen)
			if len(truncated) > maxLen && len(s) > maxLen {
				return false
			}
			if len(s) <= maxLen && truncated != s {
				return false
			}
			return true
		},
		gen.AlphaString(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
