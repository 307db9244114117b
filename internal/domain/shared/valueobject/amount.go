package valueobject

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for monetary amounts.
const MoneyScale int32 = 2

// maxAmountExponent bounds the decimal exponent accepted from text input.
// Values outside the range are treated as unparsable.
const maxAmountExponent = 64

// RoundMoney rounds d to MoneyScale fractional digits, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

type amountKind uint8

const (
	amountNull amountKind = iota
	amountText
	amountNumber
	amountDecimal
)

// RawAmount is an amount exactly as it was received from upstream data:
// a text value, a binary float, a decimal, or null. It is converted to a
// strict non-negative decimal with ParseAmountOrZero.
type RawAmount struct {
	kind amountKind
	text string
	num  float64
	dec  decimal.Decimal
}

// NullAmount returns an absent amount.
func NullAmount() RawAmount {
	return RawAmount{kind: amountNull}
}

// AmountFromString wraps a textual amount such as "120.50".
func AmountFromString(s string) RawAmount {
	return RawAmount{kind: amountText, text: s}
}

// AmountFromFloat wraps a binary floating point amount.
func AmountFromFloat(f float64) RawAmount {
	return RawAmount{kind: amountNumber, num: f}
}

// AmountFromDecimal wraps an already-decimal amount.
func AmountFromDecimal(d decimal.Decimal) RawAmount {
	return RawAmount{kind: amountDecimal, dec: d}
}

// RawAmountOf wraps an arbitrary decoded value. Unknown shapes become null.
func RawAmountOf(v any) RawAmount {
	switch x := v.(type) {
	case nil:
		return NullAmount()
	case RawAmount:
		return x
	case string:
		return AmountFromString(x)
	case json.Number:
		return AmountFromString(x.String())
	case float64:
		return AmountFromFloat(x)
	case float32:
		return AmountFromFloat(float64(x))
	case int:
		return AmountFromDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return AmountFromDecimal(decimal.NewFromInt(x))
	case int32:
		return AmountFromDecimal(decimal.NewFromInt32(x))
	case uint64:
		return AmountFromDecimal(decimal.NewFromUint64(x))
	case decimal.Decimal:
		return AmountFromDecimal(x)
	case *decimal.Decimal:
		if x == nil {
			return NullAmount()
		}
		return AmountFromDecimal(*x)
	default:
		return NullAmount()
	}
}

// IsNull reports whether no amount was supplied.
func (r RawAmount) IsNull() bool {
	return r.kind == amountNull
}

// String returns the amount in its original form, or "null".
func (r RawAmount) String() string {
	switch r.kind {
	case amountText:
		return r.text
	case amountNumber:
		return decimal.NewFromFloat(finiteOrZero(r.num)).String()
	case amountDecimal:
		return r.dec.String()
	default:
		return "null"
	}
}

// MarshalJSON keeps text amounts as strings and numbers as numbers.
func (r RawAmount) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case amountText:
		return json.Marshal(r.text)
	case amountNumber:
		return json.Marshal(finiteOrZero(r.num))
	case amountDecimal:
		return json.Marshal(r.dec.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON string, number or null. Any other JSON shape
// is kept as null rather than failing the whole document.
func (r *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = NullAmount()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*r = NullAmount()
			return nil
		}
		*r = AmountFromString(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		// Keep the literal so it is parsed exactly, without a float round trip.
		*r = AmountFromString(string(data))
	default:
		*r = NullAmount()
	}
	return nil
}

// ParseAmountOrZero converts a raw amount into a non-negative decimal. Anything
// that is not a finite, non-negative number yields zero. It never fails.
func ParseAmountOrZero(r RawAmount) decimal.Decimal {
	var d decimal.Decimal
	switch r.kind {
	case amountText:
		parsed, ok := parseAmountText(r.text)
		if !ok {
			return decimal.Zero
		}
		d = parsed
	case amountNumber:
		if math.IsNaN(r.num) || math.IsInf(r.num, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat(r.num)
	case amountDecimal:
		d = r.dec
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
