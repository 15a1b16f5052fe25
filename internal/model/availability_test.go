package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailability(t *testing.T) {
	cases := []struct {
		name      string
		stock     int
		threshold int
		want      Availability
		low       bool
	}{
		{"above threshold", 25, 10, InStock, false},
		{"at threshold", 10, 10, LowStock, true},
		{"below threshold", 5, 10, LowStock, true},
		{"empty", 0, 10, OutOfStock, true},
		{"empty with zero threshold", 0, 0, OutOfStock, true},
		{"one left zero threshold", 1, 0, InStock, false},
		{"negative stock", -3, 10, OutOfStock, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{StockQuantity: tc.stock, ThresholdValue: tc.threshold}
			assert.Equal(t, tc.want, p.Availability())
			assert.Equal(t, tc.low, p.IsLowStock())
			assert.Equal(t, tc.stock <= 0, p.IsOutOfStock())
		})
	}
}

func TestAvailabilityIsStable(t *testing.T) {
	p := Product{StockQuantity: 5, ThresholdValue: 10}
	first := p.Availability()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Availability())
	}
	assert.Equal(t, 5, p.StockQuantity)
}

func TestOutOfStockOverridesThreshold(t *testing.T) {
	p := Product{StockQuantity: 5, ThresholdValue: 10}
	assert.Equal(t, LowStock, p.Availability())

	p.StockQuantity = 0
	assert.Equal(t, OutOfStock, p.Availability())

	resp := p.ToResponse()
	assert.Equal(t, OutOfStock, resp.Availability)
	assert.True(t, resp.LowStock)
}
