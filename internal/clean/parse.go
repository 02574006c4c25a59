package clean

import (
	"sort"
	"strconv"

	"golang.org/x/exp/constraints"
)

// ParseQuantity keeps only the digits and decimal points of s and parses the
// remainder. "1500 W" gives 1500; "W" and "1.2.3" give ok == false.
func ParseQuantity(s string) (float64, bool) {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' {
			buf = append(buf, c)
		}
	}
	if len(buf) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseLeadingNumber returns the first contiguous run of ASCII digits in s.
// "45 dB" gives 45.
func ParseLeadingNumber(s string) (float64, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if isDigit && start < 0 {
			start = i
		}
		if !isDigit && start >= 0 {
			return parseDigits(s[start:i])
		}
	}
	if start < 0 {
		return 0, false
	}
	return parseDigits(s[start:])
}

func parseDigits(d string) (float64, bool) {
	v, err := strconv.ParseFloat(d, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Median returns the middle observed value, averaging the two middle values
// for an even count. ok is false when values is empty.
func Median[T constraints.Integer | constraints.Float](values []T) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// MostFrequent returns the most frequent value; ties go to the lexically smallest.
func MostFrequent(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, true
}
