package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseFloat parses an exchange numeric string exactly and converts it to
// float64.
func ParseFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseOHLCV parses the five numeric fields of a candle in o, h, l, c, v
// order.
func ParseOHLCV(o, h, l, c, v string) (open, high, low, close, volume float64, err error) {
	fields := []*float64{&open, &high, &low, &close, &volume}
	for i, s := range []string{o, h, l, c, v} {
		if *fields[i], err = ParseFloat(s); err != nil {
			return 0, 0, 0, 0, 0, err
		}
	}
	return open, high, low, close, volume, nil
}
