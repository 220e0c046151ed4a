package payments_test

import (
	"testing"

	"github.com/devadarsh07/drive_academy/payments"
	"github.com/stretchr/testify/assert"
)

func TestMoneyMajorMinorRoundTrip(t *testing.T) {
	m := payments.FromMajor(1000, "INR")
	assert.Equal(t, int64(100000), m.MinorUnits)
	assert.InDelta(t, 1000.0, m.Major(), 0.01)

	m = payments.FromMinor(100000, "INR")
	assert.InDelta(t, 1000.0, m.Major(), 0.01)
}

func TestMoneyFractionalAmountsRound(t *testing.T) {
	m := payments.FromMajor(4999.99, "INR")
	assert.Equal(t, int64(499999), m.MinorUnits)

	// Float artifacts like 0.1+0.2 must not lose a paisa.
	m = payments.FromMajor(0.1+0.2, "INR")
	assert.Equal(t, int64(30), m.MinorUnits)
}

func TestMoneyString(t *testing.T) {
	m := payments.FromMinor(499900, "INR")
	assert.Equal(t, "4999.00 INR", m.String())
}
