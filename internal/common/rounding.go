package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundHalfUp rounds v to two decimal places. The rounding is decimal,
// not binary: the value's shortest decimal rendering is rounded digit
// by digit, so ties like 1.005 and 2.675 round up to 1.01 and 2.68 even
// when the nearest binary float sits just below the midpoint. Negative
// ties round away from zero. The operation is idempotent: rounding an
// already rounded value returns it unchanged.
func RoundHalfUp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(fracPart) <= 2 {
		return v
	}

	digits := []byte(intPart + fracPart[:2])
	if fracPart[2] >= '5' {
		i := len(digits) - 1
		for ; i >= 0; i-- {
			if digits[i] < '9' {
				digits[i]++
				break
			}
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		}
	}

	out := string(digits[:len(digits)-2]) + "." + string(digits[len(digits)-2:])
	if neg {
		out = "-" + out
	}
	r, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return v
	}
	return r
}

// RoundHalfUpSlice rounds every element of vs to two decimal places
func RoundHalfUpSlice(vs []float64) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = RoundHalfUp(v)
	}
	return out
}

// FormatMarketCap renders a market capitalization as a short human string,
// e.g. 2.75e12 -> "$2.75T", 3.4e9 -> "$3.40B". Values below one million
// are shown in full dollars.
func FormatMarketCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatPrice renders a price with two decimals and a dollar sign
func FormatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", RoundHalfUp(v))
}

// FormatPercent renders a percentage with two decimals and a sign
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", RoundHalfUp(v))
}
