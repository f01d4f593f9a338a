package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/finpilot/loanflow/backend/internal/model/loan"
)

func boundsHint(product loan.Product) string {
	return fmt.Sprintf("You can request between %s and %s.",
		formatAmount(product.MinAmount), formatAmount(product.MaxAmount))
}

func tenureMenu(product loan.Product) string {
	parts := make([]string, 0, len(product.TenureMonths))
	for _, t := range product.TenureMonths {
		parts = append(parts, strconv.Itoa(t))
	}
	return strings.Join(parts, ", ") + " months"
}

// formatAmount renders whole currency units with thousands separators.
func formatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// joinNatural renders a list as "a, b and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
