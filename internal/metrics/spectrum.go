package metrics

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/optcon/internal/dynamo"
)

// DominantFrequency reports the frequency in Hz of the largest
// non-constant component in the spectrum of one state coordinate,
// sampled every dt.
type DominantFrequency struct {
	name    string
	dt      float64
	index   int
	samples []float64
}

func NewDominantFrequency(dt float64, index int) *DominantFrequency {
	return &DominantFrequency{
		name:  "dominant_frequency",
		dt:    dt,
		index: index,
	}
}

func (d *DominantFrequency) Name() string { return d.name }

func (d *DominantFrequency) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if d.index < len(x) {
		d.samples = append(d.samples, x[d.index])
	}
}

func (d *DominantFrequency) Value() float64 {
	n := len(d.samples)
	if n < 4 || d.dt <= 0 {
		return 0
	}

	mean := 0.0
	for _, v := range d.samples {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range d.samples {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	peak, peakPower := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if p := cmplx.Abs(spectrum[k]); p > peakPower {
			peak, peakPower = k, p
		}
	}
	return float64(peak) / (float64(n) * d.dt)
}

func (d *DominantFrequency) Reset() {
	d.samples = d.samples[:0]
}
