package raster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BandStats summarizes the valid samples of a band.
type BandStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Valid int     `json:"valid" doc:"Number of samples that are not no-data"`
}

// validSamples returns the samples that hold measurements.
func (b *Band) validSamples() []float64 {
	out := make([]float64, 0, len(b.Data))
	for i, v := range b.Data {
		if b.Valid(i) {
			out = append(out, v)
		}
	}
	return out
}

// Range returns the minimum and maximum over valid samples. ok is false when
// the band holds no valid sample.
func (b *Band) Range() (min, max float64, ok bool) {
	v := b.validSamples()
	if len(v) == 0 {
		return 0, 0, false
	}
	return floats.Min(v), floats.Max(v), true
}

// Stats computes Range plus the mean.
func (b *Band) Stats() BandStats {
	v := b.validSamples()
	if len(v) == 0 {
		return BandStats{}
	}
	return BandStats{
		Min:   floats.Min(v),
		Max:   floats.Max(v),
		Mean:  stat.Mean(v, nil),
		Valid: len(v),
	}
}
