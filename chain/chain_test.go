package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseUnits(t *testing.T) {
	cases := []struct {
		amount   float64
		decimals int
		want     *big.Int
	}{
		{1, 18, big.NewInt(1e18)},
		{0.0001, 18, big.NewInt(1e14)},
		{0.5, 6, big.NewInt(500000)},
		{2.5, 6, big.NewInt(2500000)},
		{0, 18, big.NewInt(0)},
		// Zero decimals falls back to the native 18.
		{0.0001, 0, big.NewInt(1e14)},
	}
	for _, tc := range cases {
		got := BaseUnits(tc.amount, tc.decimals)
		assert.Zero(t, tc.want.Cmp(got), "BaseUnits(%v, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
	}
}

func TestBaseUnitsKeepsWeiPrecision(t *testing.T) {
	// 0.1 is not exactly representable as a float; the conversion must still
	// land within one base unit of the ideal value.
	got := BaseUnits(0.1, 18)
	ideal := big.NewInt(1e17)
	diff := new(big.Int).Sub(got, ideal)
	assert.True(t, diff.CmpAbs(big.NewInt(1000)) <= 0, "0.1 ETH converted to %s", got)
}
