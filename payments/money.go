package payments

import (
	"fmt"
	"math"
)

// Money carries an amount in minor units (paise for INR) so that gateway
// payloads and stored rupee amounts never get mixed up. Conversion to and
// from major units happens here and nowhere else.
type Money struct {
	MinorUnits int64
	Currency   string
}

func FromMajor(amount float64, currency string) Money {
	return Money{
		MinorUnits: int64(math.Round(amount * 100)),
		Currency:   currency,
	}
}

func FromMinor(minorUnits int64, currency string) Money {
	return Money{MinorUnits: minorUnits, Currency: currency}
}

// Major returns the amount in major currency units (rupees for INR).
func (m Money) Major() float64 {
	return float64(m.MinorUnits) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Major(), m.Currency)
}
