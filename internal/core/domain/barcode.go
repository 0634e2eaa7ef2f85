package domain

import (
	"strconv"
	"strings"
)

// Boleto digitable line: 47 digits in three field groups, each closed by a
// mod-10 check digit. We validate structure only; whether the bill exists is
// the billing network's problem, not ours.
//
//	field 1: positions 1..9,   check digit at 10
//	field 2: positions 11..20, check digit at 21
//	field 3: positions 22..31, check digit at 32

// ValidateBarcode checks a boleto digitable line.
func ValidateBarcode(line string) bool {
	clean := strings.ReplaceAll(line, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")

	if len(clean) != 47 {
		return false
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return false
		}
	}

	fields := []struct{ start, end, dv int }{
		{0, 9, 9},
		{10, 20, 20},
		{21, 31, 31},
	}
	for _, f := range fields {
		want, _ := strconv.Atoi(string(clean[f.dv]))
		if mod10(clean[f.start:f.end]) != want {
			return false
		}
	}
	return true
}

// mod10 is the standard alternating-weight check used by boleto fields,
// walking right to left with weights 2,1,2,1... and summing digit by digit.
func mod10(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		n, _ := strconv.Atoi(string(digits[i]))
		n *= weight
		if n > 9 {
			n = n/10 + n%10
		}
		sum += n
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	if rem := sum % 10; rem != 0 {
		return 10 - rem
	}
	return 0
}
