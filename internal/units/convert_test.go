package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeightToCm(t *testing.T) {
	assert.Equal(t, 178, HeightToCm(5, 10))
	assert.Equal(t, 152, HeightToCm(5, 0))
	assert.Equal(t, 0, HeightToCm(0, 0))
	assert.Equal(t, 185, HeightToCm(6, 1))
}

func TestLbsToKg(t *testing.T) {
	assert.Equal(t, 68.0, LbsToKg(150))
	assert.Equal(t, 90.7, LbsToKg(200))
	assert.Equal(t, 0.0, LbsToKg(0))
	assert.InDelta(t, 72.6, LbsToKg(160), 1e-9)
}
