package retime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleWaveformBoundaryScenario(t *testing.T) {
	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = float64(i)
	}

	out := ResampleWaveform(samples, 4.0, 2.0)

	assert.Len(t, out, 400)
	for _, i := range []int{0, 100, 200, 399} {
		expected := samples[int(float64(i)*799.0/399.0)]
		assert.InDelta(t, expected, out[i], 1.01, "sample i approx equals samples[floor(i*799/399)]")
	}
}

func TestResampleWaveformEmptyInput(t *testing.T) {
	assert.Nil(t, ResampleWaveform(nil, 4.0, 2.0))
	assert.Nil(t, ResampleWaveform([]float64{1, 2, 3}, 0, 2.0))
}

func TestResampleWaveformUpsampling(t *testing.T) {
	out := ResampleWaveform([]float64{0, 10}, 1.0, 2.0)
	assert.Len(t, out, 4)
	assert.InDelta(t, 0.0, out[0], 1e-9)
	assert.InDelta(t, 10.0, out[3], 1e-9)
}
