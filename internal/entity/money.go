package entity

import (
	"fmt"
	"strconv"
	"strings"
)

var moneyReplacer = strings.NewReplacer("$", "", "£", "", "€", "", ",", "", " ", "")

// ParseMoney converts a currency string like "$1,899.00" to its numeric value.
// Currency symbols and thousands separators are stripped; anything that still
// fails to parse becomes 0.
func ParseMoney(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		s := moneyReplacer.Replace(strings.TrimSpace(t))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		f, err := strconv.ParseFloat(fmt.Sprintf("%v", t), 64)
		if err != nil {
			return 0
		}
		return f
	}
}

// ParseQuantity coerces a quantity from any textual or numeric form.
// Quantities are non-negative; unparsable or negative values become 0.
func ParseQuantity(v any) float64 {
	q := ParseMoney(v)
	if q < 0 {
		return 0
	}
	return q
}
