package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCommission(t *testing.T) {
	commission, net := ComputeCommission(1100, 0.10)
	assert.Equal(t, int64(110), commission)
	assert.Equal(t, int64(990), net)
}

func TestComputeCommissionRounding(t *testing.T) {
	// 15% of 333 is 49.95; commission rounds half-up, net absorbs the rest.
	commission, net := ComputeCommission(333, 0.15)
	assert.Equal(t, int64(50), commission)
	assert.Equal(t, int64(283), net)
}

func TestComputeCommissionConserves(t *testing.T) {
	for _, gross := range []int64{0, 1, 99, 1000, 1100, 333, 987654321} {
		for _, rate := range []float64{0, 0.05, 0.10, 0.125, 0.15, 0.30, 1} {
			commission, net := ComputeCommission(gross, rate)
			assert.Equal(t, gross, commission+net, "gross=%d rate=%v", gross, rate)
			assert.GreaterOrEqual(t, commission, int64(0))
		}
	}
}
