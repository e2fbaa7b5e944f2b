package schedule

import "errors"

var (
	errCycle         = errors.New("schedule: element measured while already being measured (cycle)")
	errNotMeasured   = errors.New("schedule: arrange called before measure")
	errNotArranged   = errors.New("schedule: render called before arrange")
	errFinalDuration = errors.New("schedule: final duration smaller than desired duration")
	errFinalTooSmall = errFinalDuration
	errUnknownChannel = errors.New("schedule: barrier references a channel not present in any sibling")
	errEmptyGrid      = errors.New("schedule: grid has no columns")
	errNegativeSpan   = errors.New("schedule: grid child span must be positive")
)
