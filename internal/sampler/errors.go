package sampler

import "errors"

var errOutOfRange = errors.New("sampler: pulse out of range")
