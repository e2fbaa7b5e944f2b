package pulsegen

import "errors"

var (
	errBadSampleRate  = errors.New("pulsegen: sample rate must be positive and finite")
	errNegativeLength = errors.New("pulsegen: length must be non-negative")
	errBadFrequency   = errors.New("pulsegen: base frequency must be finite")
)
