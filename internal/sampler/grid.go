package sampler

import "math"

// nextFracIndex snaps a continuous time to the smallest fractional sample
// index (in units of samples at sampleRate) that is >= t and lies on the
// alignment grid of granularity 2^alignLevel samples. A more negative
// alignLevel gives a finer grid (e.g. alignLevel=-4 quantizes sub-sample
// offsets to sixteenths of a sample), which keeps the envelope cache's
// index_offset keyspace small without losing perceptible sub-sample
// precision.
func nextFracIndex(t, sampleRate float64, alignLevel int) float64 {
	granularity := math.Pow(2, float64(alignLevel))
	raw := t * sampleRate
	ticks := math.Ceil(raw / granularity)
	return ticks * granularity
}

// splitStart returns the integer sample index and the envelope cache's
// index_offset in [0, 1) for a pulse starting at time t.
func splitStart(t, sampleRate float64, alignLevel int) (iStart int, indexOffset float64) {
	frac := nextFracIndex(t, sampleRate, alignLevel)
	i := int(math.Ceil(frac))
	return i, float64(i) - frac
}
