package filter

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ToFloat coerces a decoded document value to float64.
// Booleans, strings and containers are not numeric: they are valid plot
// values (categorical axes) but not valid filter input.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}
