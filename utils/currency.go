package utils

import (
	"math"
	"strconv"
	"strings"
)

// FormatVND renders an amount in Vietnamese dong, rounded to whole units
// with dot thousand separators: 150000 -> "150.000 ₫".
func FormatVND(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + " ₫"
}
